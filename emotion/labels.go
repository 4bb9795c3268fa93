// Package emotion classifies facial affect and checks it against the
// sentiment of finalized sentences.
package emotion

// Canonical affect labels used for logging and mismatch analysis.
const (
	Angry     = "angry"
	Happy     = "happy"
	Neutral   = "neutral"
	Sad       = "sad"
	Surprised = "surprised"

	// NoFace is logged when no face was classified for a record.
	NoFace = "No face"
)

// NativeLabels is the emotion model's output order.
var NativeLabels = []string{"angry", "disgusted", "fearful", "happy", "neutral", "sad", "surprised"}

var Canonical = []string{Angry, Happy, Neutral, Sad, Surprised}

// Canonicalize folds the model's native labels onto the canonical set.
func Canonicalize(label string) string {
	switch label {
	case "disgusted", "disgust":
		return Angry
	case "fearful", "fear":
		return Surprised
	}
	return label
}

func IsCanonical(label string) bool {
	for _, c := range Canonical {
		if c == label {
			return true
		}
	}
	return false
}
