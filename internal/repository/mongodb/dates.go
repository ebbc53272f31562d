package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

const filterDateLayout = "2006-01-02"

// dateRangeFilter adds an inclusive day range on key from YYYY-MM-DD bounds.
func dateRangeFilter(filter bson.M, key, from, to string) error {
	if from == "" && to == "" {
		return nil
	}
	cond := bson.M{}
	if from != "" {
		t, err := time.ParseInLocation(filterDateLayout, from, time.Local)
		if err != nil {
			return models.Validationf("date de début invalide: %s", from)
		}
		cond["$gte"] = t
	}
	if to != "" {
		t, err := time.ParseInLocation(filterDateLayout, to, time.Local)
		if err != nil {
			return models.Validationf("date de fin invalide: %s", to)
		}
		cond["$lt"] = t.AddDate(0, 0, 1)
	}
	filter[key] = cond
	return nil
}

// mongoTimezone names loc the way MongoDB date operators expect.
func mongoTimezone(loc *time.Location) string {
	if loc == nil || loc == time.Local || loc.String() == "Local" {
		return time.Now().Format("-07:00")
	}
	return loc.String()
}
