package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config 对应于 config.yaml 的顶级结构
type Config struct {
	Token    string   `mapstructure:"TOKEN"`
	Commands Commands `mapstructure:"commands"`
	Bot      Bot      `mapstructure:"bot"`
}

// Bot groups the channel wiring and the tuning knobs.
type Bot struct {
	ReviewChannelID  string   `mapstructure:"review_channel_id"`
	PublishChannelID string   `mapstructure:"publish_channel_id"`
	ScratchChannelID string   `mapstructure:"scratch_channel_id"`
	Cooldown         Cooldown `mapstructure:"cooldown"`
	Catalog          Catalog  `mapstructure:"catalog"`
}

// Cooldown holds the rate-limit windows, in seconds.
type Cooldown struct {
	SubmitSeconds int `mapstructure:"submit_seconds"`
	ReviewSeconds int `mapstructure:"review_seconds"`
	BurstSeconds  int `mapstructure:"burst_seconds"`
}

// Catalog holds the discovery-engine tuning knobs.
type Catalog struct {
	PageSize        int `mapstructure:"page_size"`
	RatingThreshold int `mapstructure:"rating_threshold"`
	AdFrequency     int `mapstructure:"ad_frequency"`
	SessionMinutes  int `mapstructure:"session_minutes"`
	DraftMinutes    int `mapstructure:"draft_minutes"`
}

// Commands 对应 "commands" 部分
type Commands struct {
	Allowguils []string `mapstructure:"allowguils"`
	Auth       Auth     `mapstructure:"auth"`
}

// Auth 对应 "auth" 部分
type Auth struct {
	Developers  []string `mapstructure:"Developers"`
	AdminsRoles []string `mapstructure:"AdminsRoles"`
}

var Cfg Config

func LoadConfig() (err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("bot.cooldown.submit_seconds", 1800)
	viper.SetDefault("bot.cooldown.review_seconds", 300)
	viper.SetDefault("bot.cooldown.burst_seconds", 3)
	viper.SetDefault("bot.catalog.page_size", 5)
	viper.SetDefault("bot.catalog.rating_threshold", 5)
	viper.SetDefault("bot.catalog.ad_frequency", 4)
	viper.SetDefault("bot.catalog.session_minutes", 30)
	viper.SetDefault("bot.catalog.draft_minutes", 15)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&Cfg)
	return
}

// SubmitWindow returns the submit cooldown as a duration.
func (c Cooldown) SubmitWindow() time.Duration {
	return time.Duration(c.SubmitSeconds) * time.Second
}

// ReviewWindow returns the review cooldown as a duration.
func (c Cooldown) ReviewWindow() time.Duration {
	return time.Duration(c.ReviewSeconds) * time.Second
}

// BurstWindow returns the global burst guard window as a duration.
func (c Cooldown) BurstWindow() time.Duration {
	return time.Duration(c.BurstSeconds) * time.Second
}
