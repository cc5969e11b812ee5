package models

import "time"

const (
	InternetOffline = "offline"
	InternetOnline  = "online"

	AdsYes = "yes"
	AdsNo  = "no"
)

// App is one listing of the store.
type App struct {
	ID              string     `json:"id" yaml:"id" db:"id"`
	Name            string     `json:"name" yaml:"name" db:"name"`
	Category        string     `json:"category" yaml:"category" db:"category"`
	Description     string     `json:"description" yaml:"description" db:"description"`
	IconURL         string     `json:"icon_url" yaml:"icon_url" db:"icon_url"`
	Screenshots     []string   `json:"screenshots" yaml:"screenshots"`
	APKURL          string     `json:"apk_url,omitempty" yaml:"apk_url" db:"apk_url"`
	PlayStoreURL    string     `json:"playstore_url,omitempty" yaml:"playstore_url" db:"playstore_url"`
	UptodownURL     string     `json:"uptodown_url,omitempty" yaml:"uptodown_url" db:"uptodown_url"`
	MegaURL         string     `json:"mega_url,omitempty" yaml:"mega_url" db:"mega_url"`
	MediafireURL    string     `json:"mediafire_url,omitempty" yaml:"mediafire_url" db:"mediafire_url"`
	Size            string     `json:"size,omitempty" yaml:"size" db:"size"`
	Internet        string     `json:"internet,omitempty" yaml:"internet" db:"internet"`
	Language        string     `json:"language,omitempty" yaml:"language" db:"language"`
	Version         string     `json:"version,omitempty" yaml:"version" db:"version"`
	License         string     `json:"license,omitempty" yaml:"license" db:"license"`
	OperatingSystem string     `json:"operating_system,omitempty" yaml:"operating_system" db:"operating_system"`
	Requirements    string     `json:"requirements,omitempty" yaml:"requirements" db:"requirements"`
	LastUpdated     *time.Time `json:"last_updated,omitempty" yaml:"last_updated" db:"last_updated"`
	AgeRating       string     `json:"age_rating,omitempty" yaml:"age_rating" db:"age_rating"`
	Ads             string     `json:"ads,omitempty" yaml:"ads" db:"ads"`
	PrivacyURL      string     `json:"privacy_url,omitempty" yaml:"privacy_url" db:"privacy_url"`
	PackageName     string     `json:"package_name,omitempty" yaml:"package_name" db:"package_name"`

	// Downloads is the seeded figure; RealDownloads is the live counter and
	// wins once it has been incremented at least once.
	Downloads     int64  `json:"downloads" yaml:"downloads" db:"downloads"`
	RealDownloads *int64 `json:"real_downloads,omitempty" yaml:"-" db:"real_downloads"`
	Likes         int64  `json:"likes" yaml:"likes" db:"likes"`

	Rating RatingStats `json:"rating" yaml:"rating"`
}

// DisplayDownloads is the download figure shown to visitors.
func (a *App) DisplayDownloads() int64 {
	if a.RealDownloads != nil {
		return *a.RealDownloads
	}
	return a.Downloads
}

// Counters is the live part of a listing pushed to viewers after each action.
type Counters struct {
	AppID     string      `json:"app_id"`
	Downloads int64       `json:"downloads"`
	Likes     int64       `json:"likes"`
	Rating    RatingStats `json:"rating"`
}

func (a *App) Counters() Counters {
	return Counters{
		AppID:     a.ID,
		Downloads: a.DisplayDownloads(),
		Likes:     a.Likes,
		Rating:    a.Rating,
	}
}

type ListAppsRequest struct {
	Category string `form:"category"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}
