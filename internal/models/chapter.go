package models

// Chapter is one downloadable audio segment extracted from a book page
type Chapter struct {
	Name       string `json:"name"`       // Human readable title, also the output file base name
	RemotePath string `json:"remotePath"` // Path appended to each mirror base URL
}
