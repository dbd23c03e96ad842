package model

// Option configures a Model.
type Option func(*Model)

// WithTrackHistory controls whether applied operations are stored in the
// History. Versions advance either way.
func WithTrackHistory(track bool) Option {
	return func(m *Model) {
		m.trackHistory = track
	}
}

// WithGraveyardChanges makes change events include diff items in the
// graveyard root.
func WithGraveyardChanges(include bool) Option {
	return func(m *Model) {
		m.graveyardChanges = include
	}
}

// WithPostFixer registers a post-fixer at construction.
func WithPostFixer(fn PostFixer) Option {
	return func(m *Model) {
		m.postFixers = append(m.postFixers, fn)
	}
}
