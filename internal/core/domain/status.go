package domain

// Status is the lifecycle position of a job.
type Status string

const (
	StatusQueued           Status = "queued"
	StatusResolvingChannel Status = "resolving_channel"
	StatusChannelResolved  Status = "channel_resolved"
	StatusFetchingVideos   Status = "fetching_videos"
	StatusVideosFetched    Status = "videos_fetched"
	StatusNoVideosFound    Status = "no_videos_found"
	StatusGeneratingTitles Status = "generating_titles"
	StatusTitlesGenerated  Status = "titles_generated"
	StatusSendingEmails    Status = "sending_emails"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

var allowedTransitions = map[Status]map[Status]bool{
	"": {
		StatusQueued: true,
	},
	StatusQueued: {
		StatusResolvingChannel: true,
		StatusFailed:           true,
	},
	StatusResolvingChannel: {
		StatusChannelResolved: true,
		StatusFailed:          true,
	},
	StatusChannelResolved: {
		StatusFetchingVideos: true,
		StatusFailed:         true,
	},
	StatusFetchingVideos: {
		StatusVideosFetched: true,
		StatusNoVideosFound: true,
		StatusFailed:        true,
	},
	StatusVideosFetched: {
		StatusGeneratingTitles: true,
		StatusFailed:           true,
	},
	StatusGeneratingTitles: {
		StatusTitlesGenerated: true,
		StatusFailed:          true,
	},
	StatusTitlesGenerated: {
		StatusSendingEmails: true,
		StatusFailed:        true,
	},
	StatusSendingEmails: {
		StatusCompleted: true,
		StatusFailed:    true,
	},
	StatusCompleted:     {},
	StatusNoVideosFound: {},
	StatusFailed:        {},
}

// Terminal reports whether no stage may touch a job in this status again.
func (s Status) Terminal() bool {
	next, ok := allowedTransitions[s]
	return ok && s != "" && len(next) == 0
}

func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}
