package pointmodel

// Info is the payload attached to every indexed point.
type Info struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}
