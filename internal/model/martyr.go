// internal/model/martyr.go
// Package model defines the data structures used throughout the archive service.
// These structures represent the core domain objects for martyr records and
// their attached media assets.
package model

import (
	"time"
)

// Record lifecycle status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Verification status values.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Media asset categories. Each category maps to its own object-storage bucket.
const (
	CategoryImage    = "images"
	CategoryAudio    = "audio"
	CategoryVideo    = "videos"
	CategoryDocument = "documents"
)

// Counter names accepted by the statistics increment operation.
const (
	CounterViews     = "views"
	CounterDownloads = "downloads"
	CounterShares    = "shares"
	CounterCandles   = "candles"
)

// LocalAssetPrefix marks placeholder assets recorded when an upload failed.
// Placeholder assets have no stored object behind them, so downloads on them
// must be refused.
const LocalAssetPrefix = "local-"

// MartyrRecord is one archival entry in the collection.
type MartyrRecord struct {
	ID           string       `json:"id"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	FamilyInfo   FamilyInfo   `json:"familyInfo"`
	Biography    Biography    `json:"biography"`
	MediaAssets  MediaBundle  `json:"mediaAssets"`
	Metadata     Metadata     `json:"metadata"`
	Statistics   Statistics   `json:"statistics"`
}

// PersonalInfo holds name variants and the birth/death facts of a martyr.
// Dates use the YYYY-MM-DD form. Age is computed once at creation from the
// date of birth and never recomputed afterwards; it is a snapshot.
type PersonalInfo struct {
	Name                   string `json:"name"`                             // local-script name
	NameTransliterated     string `json:"nameTransliterated,omitempty"`     // romanized form
	NameEnglish            string `json:"nameEnglish,omitempty"`            // English form
	DateOfBirth            string `json:"dateOfBirth"`                      // YYYY-MM-DD
	PlaceOfBirth           string `json:"placeOfBirth,omitempty"`
	Nationality            string `json:"nationality,omitempty"`
	DateOfMartyrdom        string `json:"dateOfMartyrdom"`                  // YYYY-MM-DD
	MartyrdomPlace         string `json:"martyrdomPlace,omitempty"`
	MartyrdomCircumstances string `json:"martyrdomCircumstances,omitempty"`
	Age                    int    `json:"age"`
}

// FamilyInfo is free text with no referential integrity to other records.
type FamilyInfo struct {
	FatherName string   `json:"fatherName,omitempty"`
	MotherName string   `json:"motherName,omitempty"`
	Siblings   []string `json:"siblings,omitempty"`
	Spouse     string   `json:"spouse,omitempty"`
	Children   []string `json:"children,omitempty"`
}

// Biography describes the martyr's life and testament.
type Biography struct {
	Education    string   `json:"education,omitempty"`
	Occupation   string   `json:"occupation,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Testament    string   `json:"testament,omitempty"`
}

// MediaBundle groups the record's media assets: at most one profile image
// plus ordered per-category lists.
type MediaBundle struct {
	ProfileImage *MediaAsset  `json:"profileImage,omitempty"`
	Gallery      []MediaAsset `json:"gallery,omitempty"`
	Videos       []MediaAsset `json:"videos,omitempty"`
	Audio        []MediaAsset `json:"audio,omitempty"`
	Documents    []MediaAsset `json:"documents,omitempty"`
}

// Metadata tracks record lifecycle facts. CreatedAt is set once and never
// changed; UpdatedAt is refreshed on every mutation.
type Metadata struct {
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	Status       string    `json:"status"`       // active | inactive | pending
	Tags         []string  `json:"tags,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	Verification string    `json:"verification"` // pending | verified | rejected
}

// Statistics holds four independent monotonic usage counters.
type Statistics struct {
	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`
	Shares    int64 `json:"shares"`
	Candles   int64 `json:"candles"` // memorial candle lights
}

// MediaAsset describes one uploaded binary attached to a record.
// Asset IDs are unique within their owning record only.
type MediaAsset struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Path      string    `json:"path"` // martyrs/{recordId}/{category}/{filename}
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Size      string    `json:"size"` // human-readable MB string
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`

	// Image fields. Dimensions are a fixed placeholder, not measured.
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`

	// Audio/video fields. Duration is approximated from file size and MIME
	// type, not decoded from the container.
	Duration           string `json:"duration,omitempty"` // mm:ss
	DurationIsEstimate bool   `json:"durationIsEstimate,omitempty"`

	Caption     string `json:"caption,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// StoreMetadata is the collection-level metadata block of the persisted
// document. TotalCount equals the record count as of the last successful save.
type StoreMetadata struct {
	TotalCount  int            `json:"totalCount"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Version     string         `json:"version"`
	Schema      map[string]any `json:"schema"`
}

// CreateRecordRequest is the JSON body (or the "record" multipart field) for
// creating a record. Media files travel as multipart file parts alongside it.
type CreateRecordRequest struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	FamilyInfo   FamilyInfo   `json:"familyInfo"`
	Biography    Biography    `json:"biography"`
	CreatedBy    string       `json:"createdBy,omitempty"`
	Status       string       `json:"status,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Priority     string       `json:"priority,omitempty"`
}

// RecordPatch replaces whole top-level sections of a record. Nil sections are
// left untouched. Creation time, statistics and media assets are not
// patchable through this type.
type RecordPatch struct {
	PersonalInfo *PersonalInfo  `json:"personalInfo,omitempty"`
	FamilyInfo   *FamilyInfo    `json:"familyInfo,omitempty"`
	Biography    *Biography     `json:"biography,omitempty"`
	Metadata     *MetadataPatch `json:"metadata,omitempty"`
}

// MetadataPatch updates the mutable metadata fields.
type MetadataPatch struct {
	Status       *string   `json:"status,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Priority     *string   `json:"priority,omitempty"`
	Verification *string   `json:"verification,omitempty"`
}

// SearchQuery collects the filters of the query surface. All filters are
// ANDed; the free-text Query term is ORed across the searchable fields.
type SearchQuery struct {
	Query    string `json:"query,omitempty"`    // free-text substring match
	Tag      string `json:"tag,omitempty"`      // case-insensitive substring
	Location string `json:"location,omitempty"` // matches birth or martyrdom place
	Year     int    `json:"year,omitempty"`     // martyrdom year, exact
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// SearchResult is a filtered page of the collection plus the pre-pagination
// match count.
type SearchResult struct {
	Records []MartyrRecord `json:"records"`
	Total   int            `json:"total"`
}

// IncrementRequest is the JSON body of the statistics increment endpoint.
// Delta defaults to 1 when omitted.
type IncrementRequest struct {
	Counter string `json:"counter"`
	Delta   int64  `json:"delta,omitempty"`
}

// SocialPostResponse carries an AI-drafted social post description.
type SocialPostResponse struct {
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generatedAt"`
}
