// ABOUTME: Synced lyrics engine package
// ABOUTME: Authoring sessions, playback highlighting and the lyrics mode controller
// Package lyrics provides the time-synchronized lyrics engine of the player.
//
// It is built from three parts:
//   - Session: records timestamps for plain-text lines while a song plays
//   - Highlighter / ActiveIndex: maps a playback position to the active line
//   - Controller: View/Edit/Sync state machine owning the current document
//
// The controller never performs I/O itself. Operations that need the lyrics
// store return a Task; run it off the event loop and hand its Result back to
// Deliver. Results for a song that is no longer selected are dropped.
//
// Example:
//
//	ctrl := lyrics.NewController(lyrics.ControllerConfig{
//	    Store: store,
//	    Clock: player,
//	    View:  screen,
//	})
//
//	task := ctrl.SelectSong(songID)
//	go func() { results <- task(ctx) }()
//	...
//	next, err := ctrl.Deliver(<-results)
package lyrics
