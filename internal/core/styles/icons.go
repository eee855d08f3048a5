package styles

// Nerd font glyphs.
var (
	IconComment  = ""
	IconReply    = ""
	IconEdit     = ""
	IconReviewed = ""
	IconPending  = ""
	IconError    = ""
	IconInfo     = ""
	IconWarning  = ""
	IconSuccess  = ""
)
