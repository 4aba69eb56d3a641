package validate_test

import (
	"errors"
	"testing"

	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/domain/validate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPersonalRecord(t *testing.T) {
	Convey("Given personal record strings", t, func() {
		Convey("When the value is MM:SS", func() {
			_, ok := validate.PersonalRecord("18:45")
			So(ok, ShouldBeTrue)
			_, ok = validate.PersonalRecord("9:59")
			So(ok, ShouldBeTrue)
		})

		Convey("When the value is malformed", func() {
			for _, s := range []string{"1845", "18:5", "abc", "18:60", "118:00", ""} {
				msg, ok := validate.PersonalRecord(s)
				So(ok, ShouldBeFalse)
				So(msg, ShouldEqual, "must be in MM:SS format")
			}
		})

		Convey("Then the form accepts exactly what the race time parser accepts", func() {
			for _, s := range []string{"18:45", "9:59", "0:00", "+1:00", "-1:00", "1:-5", "１8:45", "18:45 ", "18:5"} {
				_, ok := validate.PersonalRecord(s)
				_, err := model.ParseRaceTime(s)
				So(ok, ShouldEqual, err == nil)
			}
		})
	})
}

func TestGrade(t *testing.T) {
	Convey("Given grade strings", t, func() {
		Convey("When the value is between 9 and 12", func() {
			for _, s := range []string{"9", "10", "11", "12", " 12 "} {
				g, _, ok := validate.Grade(s)
				So(ok, ShouldBeTrue)
				So(g.Valid(), ShouldBeTrue)
			}
		})

		Convey("When the value is out of range or not a number", func() {
			for _, s := range []string{"8", "13", "ten", "", "9.5"} {
				_, msg, ok := validate.Grade(s)
				So(ok, ShouldBeFalse)
				So(msg, ShouldEqual, validate.MsgGrade)
			}
		})
	})
}

func TestAthleteForm(t *testing.T) {
	Convey("Given an athlete form", t, func() {
		Convey("When every field is valid", func() {
			in, err := validate.AthleteForm{Name: " Ava Reyes ", Grade: "11", PersonalRecord: "18:45", Events: "5K"}.Validate()

			Convey("Then the payload is trimmed and typed", func() {
				So(err, ShouldBeNil)
				So(in, ShouldResemble, model.AthleteInput{Name: "Ava Reyes", Grade: 11, PersonalRecord: "18:45", Events: "5K"})
			})
		})

		Convey("When the personal record is omitted", func() {
			_, err := validate.AthleteForm{Name: "Ava", Grade: "9"}.Validate()

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When several fields are invalid", func() {
			_, err := validate.AthleteForm{Name: "", Grade: "13", PersonalRecord: "1845"}.Validate()

			Convey("Then each field carries its own message", func() {
				var fe validate.FieldErrors
				So(errors.As(err, &fe), ShouldBeTrue)
				So(errors.Is(err, validate.ErrInvalid), ShouldBeTrue)
				So(fe.Field("name"), ShouldEqual, "is required")
				So(fe.Field("grade"), ShouldEqual, validate.MsgGrade)
				So(fe.Field("personalRecord"), ShouldEqual, "must be in MM:SS format")
				So(err.Error(), ShouldStartWith, "grade:")
			})
		})
	})
}

func TestMeetForm(t *testing.T) {
	Convey("Given a meet form", t, func() {
		Convey("When it is valid with a category", func() {
			in, err := validate.MeetForm{Name: "Region Invite", Date: "2026-10-03", Location: "Gray", Category: "varsity-girls"}.Validate()

			So(err, ShouldBeNil)
			So(in.Category, ShouldEqual, model.CategoryVarsityGirls)
		})

		Convey("When required fields are missing and the date is malformed", func() {
			_, err := validate.MeetForm{Date: "10/03/2026", Category: "open"}.Validate()

			var fe validate.FieldErrors
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Field("name"), ShouldEqual, validate.MsgRequired)
			So(fe.Field("location"), ShouldEqual, validate.MsgRequired)
			So(fe.Field("date"), ShouldEqual, validate.MsgDate)
			So(fe.Field("category"), ShouldEqual, validate.MsgCategory)
		})
	})
}

func TestResultForm(t *testing.T) {
	Convey("Given a result form", t, func() {
		Convey("When it is valid without a place", func() {
			in, err := validate.ResultForm{MeetID: "3", AthleteID: "7", Time: "17:02"}.Validate()

			So(err, ShouldBeNil)
			So(in, ShouldResemble, model.ResultInput{MeetID: 3, AthleteID: 7, Time: "17:02"})
		})

		Convey("When ids, time and place are invalid", func() {
			_, err := validate.ResultForm{MeetID: "0", AthleteID: "x", Time: "17:2", Place: "-1"}.Validate()

			var fe validate.FieldErrors
			So(errors.As(err, &fe), ShouldBeTrue)
			So(len(fe), ShouldEqual, 4)
			So(fe.Field("time"), ShouldEqual, validate.MsgRaceTime)
		})
	})
}
