package worker

import "hoard-go/internal/hoard"

// NoSelection is the Index of a selection that points at nothing.
const NoSelection = -1

// Command is a request from the front end. The set of commands is closed;
// the worker handles each kind in one exhaustive switch.
type Command interface {
	isCommand()
}

// SendRenderContext hands the worker the front end's repaint hook.
// Later values replace earlier ones.
type SendRenderContext struct {
	Ctx RenderContext
}

// RequestAllPosts asks for every post, newest first.
type RequestAllPosts struct{}

// RequestIngest ingests files and, recursively, directories.
type RequestIngest struct {
	Paths []string
}

// Search runs a whitespace-separated tag query.
type Search struct {
	Query string
}

// AddTag tags one post.
type AddTag struct {
	PostID int64
	Tag    string
}

// RemoveTag untags one post. Unknown tags are ignored.
type RemoveTag struct {
	PostID int64
	Tag    string
}

// Select records the front end's selection; the worker echoes it back as
// SetSelected so selection changes are ordered with post list updates.
type Select struct {
	Index int
}

// RemovePosts deletes posts and their files.
type RemovePosts struct {
	IDs []int64
}

// DeleteTag removes a tag from the vocabulary and from every post.
type DeleteTag struct {
	Name string
}

func (SendRenderContext) isCommand() {}
func (RequestAllPosts) isCommand()   {}
func (RequestIngest) isCommand()     {}
func (Search) isCommand()            {}
func (AddTag) isCommand()            {}
func (RemoveTag) isCommand()         {}
func (Select) isCommand()            {}
func (RemovePosts) isCommand()       {}
func (DeleteTag) isCommand()         {}

// Event is a notification to the front end.
type Event interface {
	isEvent()
}

// RequestRenderContext is sent once at startup; the front end answers
// with SendRenderContext.
type RequestRenderContext struct{}

// SetPosts replaces the list of posts on display.
type SetPosts struct {
	Posts []*hoard.Post
}

// ShowProgress toggles the progress indicator.
type ShowProgress struct {
	Visible bool
}

// SetProgress reports Current of Total files processed.
type SetProgress struct {
	Current int
	Total   int
}

// SetProgressMessage replaces the progress text.
type SetProgressMessage struct {
	Text string
}

// SetSelected moves the selection, NoSelection to clear it.
type SetSelected struct {
	Index int
}

// ReportError carries the failure of a command that has no other way to
// report back. Per-file ingest failures are logged, not reported.
type ReportError struct {
	Err error
}

func (RequestRenderContext) isEvent() {}
func (SetPosts) isEvent()             {}
func (ShowProgress) isEvent()         {}
func (SetProgress) isEvent()          {}
func (SetProgressMessage) isEvent()   {}
func (SetSelected) isEvent()          {}
func (ReportError) isEvent()          {}
