package domain

// Platform identifies the external social network an account is linked to.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformTikTok, PlatformInstagram, PlatformYouTube, PlatformFacebook:
		return true
	}
	return false
}

// ContentType tags the format of a single piece of content.
type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypeReel  ContentType = "reel"
	ContentTypeShort ContentType = "short"
	ContentTypePost  ContentType = "post"
	ContentTypeStory ContentType = "story"
	ContentTypeLive  ContentType = "live"
)
