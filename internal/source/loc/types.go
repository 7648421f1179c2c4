package loc

// searchResponse is the envelope of a /search/?fo=json response. Result
// records carry no stable schema, so they stay as raw maps and are read
// through loosejson.
type searchResponse struct {
	Results []map[string]any `json:"results"`
}
