package recorder

// Profile is one codec/container combination tried during format
// negotiation.
type Profile struct {
	MIMEType string
	Ext      string
}

// DefaultProfiles is the ordered preference list probed when a recording
// begins. The first profile the platform reports support for wins.
var DefaultProfiles = []Profile{
	{MIMEType: "video/webm;codecs=vp9,opus", Ext: "webm"},
	{MIMEType: "video/webm;codecs=vp8,opus", Ext: "webm"},
	{MIMEType: "video/webm", Ext: "webm"},
	{MIMEType: "video/mp4", Ext: "mp4"},
}

// FallbackProfile is used when no profile in the preference list reports
// support. Negotiation itself never fails.
var FallbackProfile = Profile{MIMEType: "video/webm", Ext: "webm"}

// Negotiate walks profiles in order and returns the first one supported
// reports true for, falling back to FallbackProfile when none do.
func Negotiate(profiles []Profile, supported func(mimeType string) bool) Profile {
	for _, p := range profiles {
		if supported(p.MIMEType) {
			return p
		}
	}
	return FallbackProfile
}
