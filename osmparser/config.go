package osmparser

import "runtime"

type Config struct {
	Threads int
	Dataset string
	// CategoryTags are checked in order, the first present tag value
	// becomes the point category.
	CategoryTags []string
}

func ConfigDefault() Config {
	return Config{
		Threads:      runtime.GOMAXPROCS(-1),
		Dataset:      "osm",
		CategoryTags: []string{"amenity", "shop", "tourism", "leisure", "historic"},
	}
}
