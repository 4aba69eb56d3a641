package notify_test

import (
	"sync"
	"testing"

	"github.com/okian/xcroster/internal/notify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHub(t *testing.T) {
	Convey("Given a hub with one subscriber", t, func() {
		var hub notify.Hub[string]
		var got []string
		unsubscribe := hub.Subscribe(func(s string) { got = append(got, s) })

		Convey("When values are published in order", func() {
			hub.Publish(1, "a")
			hub.Publish(2, "b")

			Convey("Then each is delivered", func() {
				So(got, ShouldResemble, []string{"a", "b"})
				So(hub.Len(), ShouldEqual, 1)
			})
		})

		Convey("When an older version arrives late", func() {
			hub.Publish(2, "new")
			hub.Publish(1, "old")

			Convey("Then it is dropped", func() {
				So(got, ShouldResemble, []string{"new"})
			})
		})

		Convey("When the subscriber is removed", func() {
			unsubscribe()
			unsubscribe()
			hub.Publish(1, "a")

			Convey("Then nothing is delivered", func() {
				So(got, ShouldBeEmpty)
				So(hub.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the hub is closed", func() {
			hub.Close()
			hub.Publish(1, "a")

			So(got, ShouldBeEmpty)
		})
	})
}

func TestHubReentrant(t *testing.T) {
	Convey("Given a subscriber that publishes from its callback", t, func() {
		var hub notify.Hub[int]
		var got []int
		hub.Subscribe(func(v int) {
			got = append(got, v)
			if v == 1 {
				hub.Publish(2, 2)
			}
		})

		hub.Publish(1, 1)

		Convey("Then the nested value is delivered after the callback returns", func() {
			So(got, ShouldResemble, []int{1, 2})
		})
	})

	Convey("Given a subscriber that unsubscribes itself", t, func() {
		var hub notify.Hub[int]
		var (
			got         []int
			unsubscribe func()
			once        sync.Once
		)
		unsubscribe = hub.Subscribe(func(v int) {
			got = append(got, v)
			once.Do(unsubscribe)
		})

		hub.Publish(1, 1)
		hub.Publish(2, 2)

		So(got, ShouldResemble, []int{1})
	})
}
