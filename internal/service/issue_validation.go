package service

import (
	"net/mail"
	"strings"

	"issue-service/internal/model"
)

// IssueFields are the user-editable parts of an issue.
type IssueFields struct {
	Description         string
	UsingCustomLocation bool
	Latitude            *float64
	Longitude           *float64
	CustomLocation      string
	Category            string
	CustomCategory      string
}

func validateIssueFields(f IssueFields) []string {
	var violations []string

	if strings.TrimSpace(f.Description) == "" {
		violations = append(violations, "description is required")
	}

	if f.UsingCustomLocation {
		if strings.TrimSpace(f.CustomLocation) == "" {
			violations = append(violations, "custom location is required when using a custom location")
		}
		if f.Latitude != nil || f.Longitude != nil {
			violations = append(violations, "latitude and longitude must be empty when using a custom location")
		}
	} else {
		if f.Latitude == nil || f.Longitude == nil {
			violations = append(violations, "latitude and longitude are required when not using a custom location")
		} else {
			if *f.Latitude < -90 || *f.Latitude > 90 {
				violations = append(violations, "latitude must be between -90 and 90")
			}
			if *f.Longitude < -180 || *f.Longitude > 180 {
				violations = append(violations, "longitude must be between -180 and 180")
			}
		}
		if strings.TrimSpace(f.CustomLocation) != "" {
			violations = append(violations, "custom location must be empty when coordinates are used")
		}
	}

	if strings.TrimSpace(f.Category) == "" {
		violations = append(violations, "category is required")
	} else if model.IsCustomCategory(f.Category) && strings.TrimSpace(f.CustomCategory) == "" {
		violations = append(violations, "custom category is required when category is custom")
	}

	return violations
}

func validateIssueMedia(photos, videos []MediaFile) []string {
	var violations []string
	if len(photos) == 0 && len(videos) == 0 {
		violations = append(violations, "at least one photo or video is required")
	}
	violations = append(violations, validatePhotos(photos)...)
	violations = append(violations, validateVideos(videos)...)
	return violations
}

func validateReporterEmail(email string) []string {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return []string{"reporter email is not a valid address"}
	}
	return nil
}

// applyIssueFields copies validated fields, clearing whichever location mode is unused.
func applyIssueFields(issue *model.Issue, f IssueFields) {
	issue.Description = strings.TrimSpace(f.Description)
	issue.UsingCustomLocation = f.UsingCustomLocation

	if f.UsingCustomLocation {
		location := strings.TrimSpace(f.CustomLocation)
		issue.CustomLocation = &location
		issue.Latitude = nil
		issue.Longitude = nil
	} else {
		lat, lon := *f.Latitude, *f.Longitude
		issue.Latitude = &lat
		issue.Longitude = &lon
		issue.CustomLocation = nil
	}

	if model.IsCustomCategory(f.Category) {
		custom := strings.TrimSpace(f.CustomCategory)
		issue.Category = model.CategoryCustom
		issue.CustomCategory = &custom
	} else {
		issue.Category = strings.TrimSpace(f.Category)
		issue.CustomCategory = nil
	}
}
