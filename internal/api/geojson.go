package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"github.com/chrisdamba/parksim/internal/models"
)

// FeatureCollection renders a snapshot as GeoJSON points placed at each
// lot's geocoordinates.
func FeatureCollection(snapshot models.FeedSnapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, lot := range snapshot.Lots {
		f := geojson.NewFeature(lot.Location.Point())
		f.ID = lot.ID
		f.Properties["name"] = lot.Name
		f.Properties["status"] = lot.Status.String()
		f.Properties["totalSpaces"] = lot.TotalSpaces
		f.Properties["availableSpaces"] = lot.AvailableSpaces
		f.Properties["pricePerHour"] = lot.PricePerHour
		f.Properties["distance"] = lot.Distance
		fc.Append(f)
	}
	return fc
}

func (h *Handler) getFeedGeoJSON(c *gin.Context) {
	fc := FeatureCollection(h.feed.Read())
	data, err := fc.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}
