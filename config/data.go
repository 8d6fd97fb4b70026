package config

import "time"

// Data is the actual configuration data for the client
type Data struct {
	CreatedAt time.Time `json:"created_at"`
	LoadedAt  time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Version   int64     `json:"version"`

	// Address is the origin of the host, unless an override is stored locally.
	Address    string `json:"address"`
	TimeoutSec int    `json:"timeout_sec"`
	Log        struct {
		Level string `json:"level" enums:"debug,info,warn,error,silent"`
	} `json:"log"`
	Storage struct {
		Dir string `json:"dir"`
	} `json:"storage"`
	Metrics struct {
		Address string `json:"address"`
	} `json:"metrics"`
}
