package config

import (
	"strings"

	"github.com/spf13/viper"
)

// NewViper returns a viper instance reading SIGNBRIDGE_* environment variables,
// e.g. SIGNBRIDGE_PIPELINE_ROOM for pipeline.room.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("signbridge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Overlay applies the keys set in v (flags or environment) over the decoded file.
func Overlay(v *viper.Viper, r *Root) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := v.GetString(key); s != "" {
				*dst = s
			}
		}
	}
	str("pipeline.room", &r.Pipeline.Room)
	str("pipeline.log_level", &r.Pipeline.LogLvl)
	str("pipeline.log_format", &r.Pipeline.LogFormat)
	str("capture.source", &r.Capture.Source)
	str("interaction_log.backend", &r.InteractionLog.Backend)
	str("interaction_log.path", &r.InteractionLog.Path)
	str("interaction_log.dsn", &r.InteractionLog.DSN)
	str("sentiment.provider", &r.Sentiment.Provider)
	str("chat.transport", &r.Chat.Transport)
	str("paths.outputs", &r.Paths.Outputs)

	if v.IsSet("speech.enabled") {
		r.Speech.Enabled = v.GetBool("speech.enabled")
	}
	if v.IsSet("telemetry.enabled") {
		r.Telemetry.Enabled = v.GetBool("telemetry.enabled")
	}
	if v.IsSet("interaction_log.frame_rate") {
		r.InteractionLog.FrameRate = v.GetFloat64("interaction_log.frame_rate")
	}
}
