package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/xcroster/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorResponse(t *testing.T) {
	Convey("Given error bodies", t, func() {
		Convey("When the server uses the error field", func() {
			var body types.ErrorResponse
			So(json.Unmarshal([]byte(`{"error":"Invalid password"}`), &body), ShouldBeNil)

			Convey("Then Text returns it", func() {
				So(body.Text(), ShouldEqual, "Invalid password")
			})
		})

		Convey("When the server uses the message field", func() {
			var body types.ErrorResponse
			So(json.Unmarshal([]byte(`{"message":"gateway down"}`), &body), ShouldBeNil)

			Convey("Then Text falls back to it", func() {
				So(body.Text(), ShouldEqual, "gateway down")
			})
		})

		Convey("When both are present", func() {
			body := types.ErrorResponse{Error: "a", Message: "b"}

			Convey("Then error wins", func() {
				So(body.Text(), ShouldEqual, "a")
			})
		})

		Convey("When neither is present", func() {
			So(types.ErrorResponse{}.Text(), ShouldBeEmpty)
		})
	})
}

func TestVerifyResponse(t *testing.T) {
	Convey("Given a rejected verification", t, func() {
		raw, err := json.Marshal(types.VerifyResponse{Valid: false, Error: "Invalid or expired token"})
		So(err, ShouldBeNil)

		Convey("Then valid is always encoded", func() {
			So(string(raw), ShouldContainSubstring, `"valid":false`)
		})
	})
}
