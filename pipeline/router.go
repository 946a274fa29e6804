package pipeline

// router maps (format, intent) to an extractor target. The table is
// evaluated top-down: structured values always go to the schema extractor,
// emails always to the email extractor, and free text only reaches the
// email extractor when its intent is email-like or ambiguous.
type router struct {
	emailLike map[string]struct{}
}

func newRouter(cfg *Config) *router {
	emailLike := make(map[string]struct{}, len(cfg.EmailLikeIntents))
	for _, intent := range cfg.EmailLikeIntents {
		emailLike[intent] = struct{}{}
	}
	return &router{emailLike: emailLike}
}

func (r *router) Route(format Format, intent string) Target {
	switch format {
	case FormatStructured:
		return TargetSchema
	case FormatEmail:
		return TargetEmail
	case FormatText, FormatPDF:
		if _, ok := r.emailLike[intent]; ok || intent == IntentOther {
			return TargetEmail
		}
		return NoRoute
	default:
		return NoRoute
	}
}
