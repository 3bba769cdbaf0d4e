package pgcr

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/ratepool/internal/testutil"
	"github.com/vnykmshr/ratepool/pkg/common/errors"
)

const reportJSON = `{
	"ErrorCode": 1,
	"ErrorStatus": "Success",
	"Message": "Ok",
	"Response": {
		"period": "2021-05-12T17:00:00Z",
		"activityDetails": {"directorActivityHash": 3577607128, "referenceId": 3577607128, "instanceId": "%d", "mode": 63},
		"entries": [
			{"characterId": "2305843009574374200", "values": {
				"kills": {"basic": {"value": 12, "displayValue": "12"}},
				"deaths": {"basic": {"value": 4, "displayValue": "4"}},
				"assists": {"basic": {"value": 3, "displayValue": "3"}},
				"killsDeathsRatio": {"basic": {"value": 3, "displayValue": "3.00"}},
				"killsDeathsAssists": {"basic": {"value": 3.375, "displayValue": "3.38"}},
				"efficiency": {"basic": {"value": 3.75, "displayValue": "3.75"}},
				"score": {"basic": {"value": 40000, "displayValue": "40,000"}},
				"standing": {"basic": {"value": 0, "displayValue": "Victory"}},
				"teamScore": {"basic": {"value": 4, "displayValue": "4"}},
				"activityDurationSeconds": {"basic": {"value": 812, "displayValue": "13m 32s"}}
			}},
			{"characterId": "2305843009574374201", "values": {
				"kills": {"basic": {"value": 5, "displayValue": "5"}},
				"standing": {"basic": {"value": 1, "displayValue": "Defeat"}}
			}},
			{"characterId": "2305843009574374202"}
		]
	}
}`

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/Platform", APIKey: "key", Timeout: time.Second})
	testutil.AssertNoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "https://example.com/Platform/"})
	testutil.AssertTrue(t, errors.IsValidationError(err))

	_, err = NewClient(ClientConfig{BaseURL: "not a url", APIKey: "k"})
	testutil.AssertTrue(t, errors.IsValidationError(err))
}

func TestPostGameCarnageReport(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/Platform/Destiny2/Stats/PostGameCarnageReport/42/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, reportJSON, 42)
	})

	report, err := c.PostGameCarnageReport(context.Background(), 42)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, report.Period, "2021-05-12T17:00:00Z")
	testutil.AssertEqual(t, report.ActivityDetails.DirectorActivityHash, uint32(3577607128))
	testutil.AssertEqual(t, len(report.Entries), 3)
	testutil.AssertEqual(t, report.Entries[0].Values["kills"].Basic.Value, 12.0)
}

func TestPlatformErrorEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ErrorCode": 51, "ErrorStatus": "PerEndpointRequestThrottleExceeded", "Message": "slow down", "ThrottleSeconds": 10}`)
	})

	_, err := c.PostGameCarnageReport(context.Background(), 1)
	var apiErr *APIError
	testutil.AssertTrue(t, stderrors.As(err, &apiErr))
	testutil.AssertEqual(t, apiErr.Code, 51)
	testutil.AssertTrue(t, stderrors.Is(err, errors.ErrRateLimited))
	testutil.AssertTrue(t, errors.IsRetryable(err))
}

func TestNotFoundEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ErrorCode": 1653, "ErrorStatus": "DestinyPGCRNotFound", "Message": "not found"}`)
	})

	_, err := c.PostGameCarnageReport(context.Background(), 1)
	var apiErr *APIError
	testutil.AssertTrue(t, stderrors.As(err, &apiErr))
	testutil.AssertTrue(t, !stderrors.Is(err, errors.ErrRateLimited))
}

func TestNonJSONBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "<html>throttled</html>")
	})

	_, err := c.PostGameCarnageReport(context.Background(), 1)
	var bodyErr *BodyError
	testutil.AssertTrue(t, stderrors.As(err, &bodyErr))
	testutil.AssertEqual(t, bodyErr.StatusCode, http.StatusTooManyRequests)
	testutil.AssertTrue(t, stderrors.Is(err, errors.ErrRateLimited))
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond})
	testutil.AssertNoError(t, err)

	_, err = c.PostGameCarnageReport(context.Background(), 1)
	var opErr *errors.OperationError
	testutil.AssertTrue(t, stderrors.As(err, &opErr))
	testutil.AssertTrue(t, stderrors.Is(err, errors.ErrTimeout))
}

func TestActivityHistory(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/Platform/Destiny2/3/Account/4611686018497112157/Character/2305843009574374200/Stats/Activities/"
		if r.URL.Path != want || r.URL.Query().Get("count") != "2" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"ErrorCode": 1, "Response": {"activities": [
			{"period": "2021-05-12T17:00:00Z", "activityDetails": {"directorActivityHash": 1, "instanceId": "8400554258"}},
			{"period": "2021-05-12T16:00:00Z", "activityDetails": {"directorActivityHash": 2, "instanceId": "8400554100"}}
		]}}`)
	})

	activities, err := c.ActivityHistory(context.Background(), Character{
		MembershipType: 3,
		MembershipID:   "4611686018497112157",
		CharacterID:    "2305843009574374200",
	}, 2)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(activities), 2)
	testutil.AssertEqual(t, activities[1].ActivityDetails.InstanceID, "8400554100")
}

func TestEmptyResponse(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ErrorCode": 1}`)
	})
	_, err := c.PostGameCarnageReport(context.Background(), 1)
	testutil.AssertTrue(t, err != nil && strings.Contains(err.Error(), "empty response"))
}
