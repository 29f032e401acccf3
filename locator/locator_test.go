package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"transitview.dev/metrics/locator"
)

func TestRoutesURL(t *testing.T) {
	l := locator.New()

	assert.Equal(
		t,
		"https://transitview-precomputed-stats.s3.amazonaws.com/routes/v1/routes_v1_sf-muni.json.gz?x",
		l.RoutesURL("sf-muni"),
	)
}

func TestArrivalsURL(t *testing.T) {
	l := locator.New()

	assert.Equal(
		t,
		"https://transitview-precomputed-stats.s3.amazonaws.com/arrivals/v1/sf-muni/2023/03/06/arrivals_v1_sf-muni_2023-03-06_12.json.gz?aj",
		l.ArrivalsURL("sf-muni", "2023-03-06", "12"),
	)
}

func TestCustomBucketAndVersion(t *testing.T) {
	l := locator.Locator{Bucket: "stats", Version: "v2"}

	assert.Equal(
		t,
		"https://stats.s3.amazonaws.com/routes/v2/routes_v2_portland-sc.json.gz?x",
		l.RoutesURL("portland-sc"),
	)
}

func TestBaseURLOverride(t *testing.T) {
	l := locator.New()
	l.BaseURL = "http://127.0.0.1:9999"

	assert.Equal(
		t,
		"http://127.0.0.1:9999/arrivals/v1/a/2023/01/02/arrivals_v1_a_2023-01-02_r.json.gz?aj",
		l.ArrivalsURL("a", "2023-01-02", "r"),
	)
}
