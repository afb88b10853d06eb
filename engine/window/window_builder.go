package window

import "github.com/rokups/Urho3D/common"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size.
//
// Parameters:
//   - size: initial size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(size common.IntVector2) WindowBuilderOption {
	return func(w *engineWindow) {
		w.size = size
	}
}

// WithMinSize sets the minimum allowed window size during resize.
//
// Parameters:
//   - size: minimum size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(size common.IntVector2) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minSize = size
	}
}

// WithMaxSize sets the maximum allowed window size during resize.
//
// Parameters:
//   - size: maximum size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(size common.IntVector2) WindowBuilderOption {
	return func(w *engineWindow) {
		w.maxSize = size
	}
}
