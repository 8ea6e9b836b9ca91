package model

type SubmitResponse struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
	Reason   string `json:"reason,omitempty"`
}

type MessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}

type StatusResponse struct {
	URL               string `json:"url,omitempty"`
	Title             string `json:"title,omitempty"`
	ContentLength     int    `json:"content_length"`
	State             string `json:"state"`
	TranscriptLength  int    `json:"transcript_length"`
	CachedPages       int    `json:"cached_pages"`
	CachedResponses   int    `json:"cached_responses"`
	ExtractionFailure string `json:"extraction_failure,omitempty"`
}

type OpenPageResponse struct {
	Status   StatusResponse `json:"status"`
	Messages []ChatMessage  `json:"messages"`
}
