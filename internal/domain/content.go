package domain

import (
	"fmt"
	"strings"
)

type Platform string
type Industry string

const (
	PlatformTikTok    Platform = "TIKTOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformTwitter   Platform = "TWITTER"
	PlatformLinkedIn  Platform = "LINKEDIN"
	PlatformYouTube   Platform = "YOUTUBE"

	IndustryHealthcare Industry = "healthcare"
	IndustryFinance    Industry = "finance"
	IndustryLegal      Industry = "legal"
	IndustryGeneral    Industry = "general"
)

var Platforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformFacebook,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformYouTube,
}

func ParsePlatform(value string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform: %q", value)
}

func ParseIndustry(value string) Industry {
	return Industry(strings.ToLower(strings.TrimSpace(value)))
}

// Field names used in violation locations.
const (
	FieldTitle    = "title"
	FieldScript   = "script"
	FieldCaption  = "caption"
	FieldHashtags = "hashtags"
	FieldContent  = "content"
)

// Content is the snapshot a check runs against. The engine never mutates it.
type Content struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title,omitempty"`
	Script   string   `json:"script,omitempty"`
	Caption  string   `json:"caption,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Platform Platform `json:"platform"`
	Industry Industry `json:"industry,omitempty"`
	MediaURL string   `json:"media_url,omitempty"`
}

// Field returns the text of a named free-text field.
func (c Content) Field(name string) string {
	switch name {
	case FieldTitle:
		return c.Title
	case FieldScript:
		return c.Script
	case FieldCaption:
		return c.Caption
	case FieldHashtags:
		return strings.Join(c.Hashtags, " ")
	default:
		return ""
	}
}

func (c Content) FreeText() string {
	parts := make([]string, 0, 4)
	for _, field := range []string{FieldTitle, FieldScript, FieldCaption, FieldHashtags} {
		if text := c.Field(field); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.FreeText()) == "" && c.MediaURL == ""
}
