// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScanType classifies what a scan looks up.
type ScanType string

const (
	ScanTypeUsername ScanType = "username"
	ScanTypeEmail    ScanType = "email"
	ScanTypePhone    ScanType = "phone"
	ScanTypeMetadata ScanType = "metadata"
	ScanTypeSocial   ScanType = "social"
	ScanTypePassword ScanType = "password"
)

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	switch t {
	case ScanTypeUsername, ScanTypeEmail, ScanTypePhone,
		ScanTypeMetadata, ScanTypeSocial, ScanTypePassword:
		return true
	}
	return false
}

// ScanStatus is the lifecycle state of a scan record.
type ScanStatus string

const (
	ScanStatusPending    ScanStatus = "pending"
	ScanStatusProcessing ScanStatus = "processing"
	ScanStatusCompleted  ScanStatus = "completed"
	ScanStatusFailed     ScanStatus = "failed"
)

// PlatformMatch is one platform where a username was found.
type PlatformMatch struct {
	Platform   string `json:"platform"`
	URL        string `json:"url"`
	Exists     bool   `json:"exists"`
	PublicInfo string `json:"public_info,omitempty"`
}

// BreachRecord is one data breach an email address appeared in.
type BreachRecord struct { //nolint:govet // fieldalignment: readability over optimization
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Domain       string    `json:"domain"`
	BreachDate   time.Time `json:"breach_date"`
	AddedDate    time.Time `json:"added_date"`
	PwnCount     int64     `json:"pwn_count"`
	Description  string    `json:"description,omitempty"`
	DataClasses  []string  `json:"data_classes"`
	IsVerified   bool      `json:"is_verified"`
	IsFabricated bool      `json:"is_fabricated"`
	IsSensitive  bool      `json:"is_sensitive"`
	IsRetired    bool      `json:"is_retired"`
	IsSpamList   bool      `json:"is_spam_list"`
}

// ExposureEntry is one place a phone number was exposed.
type ExposureEntry struct {
	Source    string `json:"source"`
	Type      string `json:"type"`
	Details   string `json:"details,omitempty"`
	RiskLevel string `json:"risk_level"`
}

// GeoLocation is a coordinate extracted from file metadata.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// DeviceInfo identifies the device that produced a file.
type DeviceInfo struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Software string `json:"software,omitempty"`
}

// FileMetadata holds extracted file metadata. Reserved: no scan path
// populates it yet.
type FileMetadata struct {
	FileName   string       `json:"file_name"`
	FileType   string       `json:"file_type"`
	FileSize   int64        `json:"file_size"`
	Location   *GeoLocation `json:"location,omitempty"`
	DeviceInfo *DeviceInfo  `json:"device_info,omitempty"`
	Author     string       `json:"author,omitempty"`
}

// Findings is the sealed variant payload of a scan result. Exactly one
// concrete type exists per active scan type, so consumers can switch
// exhaustively.
type Findings interface {
	ScanType() ScanType
}

// PlatformFindings is the username-scan variant.
type PlatformFindings struct {
	Platforms []PlatformMatch `json:"platforms_found"`
}

func (PlatformFindings) ScanType() ScanType { return ScanTypeUsername }

// BreachFindings is the email-scan variant. ExposedData is the
// deduplicated union of every breach's data classes.
type BreachFindings struct {
	Breaches    []BreachRecord `json:"breaches"`
	ExposedData []string       `json:"exposed_data"`
}

func (BreachFindings) ScanType() ScanType { return ScanTypeEmail }

// PhoneFindings is the phone-scan variant.
type PhoneFindings struct {
	Entries []ExposureEntry `json:"phone_exposure"`
}

func (PhoneFindings) ScanType() ScanType { return ScanTypePhone }

// MetadataFindings is the reserved file-metadata variant.
type MetadataFindings struct {
	Metadata FileMetadata `json:"metadata"`
}

func (MetadataFindings) ScanType() ScanType { return ScanTypeMetadata }

// ScanResults couples the typed findings with the generated
// recommendations. It serializes to a single JSON column.
type ScanResults struct {
	Findings        Findings `json:"-"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// resultsEnvelope is the wire/storage shape of ScanResults. The
// scan_type tag selects which findings slot is populated.
type resultsEnvelope struct { //nolint:govet // fieldalignment: readability over optimization
	ScanType        ScanType         `json:"scan_type,omitempty"`
	PlatformsFound  []PlatformMatch  `json:"platforms_found,omitempty"`
	Breaches        []BreachRecord   `json:"breaches,omitempty"`
	ExposedData     []string         `json:"exposed_data,omitempty"`
	PhoneExposure   []ExposureEntry  `json:"phone_exposure,omitempty"`
	Metadata        *FileMetadata    `json:"metadata,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
}

func (r ScanResults) MarshalJSON() ([]byte, error) {
	env := resultsEnvelope{Recommendations: r.Recommendations}
	switch f := r.Findings.(type) {
	case nil:
	case *PlatformFindings:
		env.ScanType = ScanTypeUsername
		env.PlatformsFound = f.Platforms
	case *BreachFindings:
		env.ScanType = ScanTypeEmail
		env.Breaches = f.Breaches
		env.ExposedData = f.ExposedData
	case *PhoneFindings:
		env.ScanType = ScanTypePhone
		env.PhoneExposure = f.Entries
	case *MetadataFindings:
		env.ScanType = ScanTypeMetadata
		env.Metadata = &f.Metadata
	default:
		return nil, fmt.Errorf("unknown findings type %T", r.Findings)
	}
	return json.Marshal(env)
}

func (r *ScanResults) UnmarshalJSON(data []byte) error {
	var env resultsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	r.Recommendations = env.Recommendations
	switch env.ScanType {
	case "":
		r.Findings = nil
	case ScanTypeUsername:
		r.Findings = &PlatformFindings{Platforms: env.PlatformsFound}
	case ScanTypeEmail:
		r.Findings = &BreachFindings{Breaches: env.Breaches, ExposedData: env.ExposedData}
	case ScanTypePhone:
		r.Findings = &PhoneFindings{Entries: env.PhoneExposure}
	case ScanTypeMetadata:
		md := FileMetadata{}
		if env.Metadata != nil {
			md = *env.Metadata
		}
		r.Findings = &MetadataFindings{Metadata: md}
	default:
		return fmt.Errorf("unknown scan type %q in results", env.ScanType)
	}
	return nil
}

// Value implements driver.Valuer so results persist as a JSON column.
func (r ScanResults) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (r *ScanResults) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = ScanResults{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), r)
	case []byte:
		return json.Unmarshal(v, r)
	default:
		return fmt.Errorf("cannot scan %T into ScanResults", src)
	}
}

// Scan is one user-initiated lookup request and its graded result. A
// scan belongs to exactly one user for its entire lifetime.
type Scan struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string       `db:"id" json:"id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	ScanType    ScanType     `db:"scan_type" json:"scan_type"`
	ScanInput   string       `db:"scan_input" json:"scan_input"`
	Status      ScanStatus   `db:"status" json:"status"`
	RiskScore   int64        `db:"risk_score" json:"risk_score"`
	Results     ScanResults  `db:"results_json" json:"results"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}
