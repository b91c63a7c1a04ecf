package report

import (
	"strconv"
	"strings"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// LocationGroup is every active marketer reporting the same coordinates.
type LocationGroup struct {
	Coordinates string
	Lat, Lon    float64
	Valid       bool
	Marketers   []model.ActiveMarketer
}

// GroupByCoordinates groups marketers by their exact coordinate string,
// keeping the order in which each location first appears.
func GroupByCoordinates(active []model.ActiveMarketer) []LocationGroup {
	index := make(map[string]int)
	var groups []LocationGroup
	for _, m := range active {
		i, ok := index[m.Coordinates]
		if !ok {
			g := LocationGroup{Coordinates: m.Coordinates}
			g.Lat, g.Lon, g.Valid = parseCoordinates(m.Coordinates)
			groups = append(groups, g)
			i = len(groups) - 1
			index[m.Coordinates] = i
		}
		groups[i].Marketers = append(groups[i].Marketers, m)
	}
	return groups
}

func parseCoordinates(s string) (lat, lon float64, ok bool) {
	latText, lonText, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
