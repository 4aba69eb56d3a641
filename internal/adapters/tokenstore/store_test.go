package tokenstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/xcroster/internal/adapters/tokenstore"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "session.json")
		store, err := tokenstore.NewFileStore(path)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When nothing was saved", func() {
			_, err := store.Load(ctx)

			Convey("Then ErrNoToken is returned", func() {
				So(errors.Is(err, tokenstore.ErrNoToken), ShouldBeTrue)
			})
		})

		Convey("When a token is saved", func() {
			So(store.Save(ctx, "tok-abc"), ShouldBeNil)

			Convey("Then a fresh store on the same path loads it", func() {
				reopened, err := tokenstore.NewFileStore(path)
				So(err, ShouldBeNil)
				token, err := reopened.Load(ctx)
				So(err, ShouldBeNil)
				So(token, ShouldEqual, "tok-abc")
			})

			Convey("Then the file is private and keyed", func() {
				info, err := os.Stat(path)
				So(err, ShouldBeNil)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, tokenstore.StorageKey)
			})

			Convey("Then clearing removes it", func() {
				So(store.Clear(ctx), ShouldBeNil)
				_, err := store.Load(ctx)
				So(errors.Is(err, tokenstore.ErrNoToken), ShouldBeTrue)
				So(store.Clear(ctx), ShouldBeNil)
			})
		})

		Convey("When the file is corrupt", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o700), ShouldBeNil)
			So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)
			_, err := store.Load(ctx)

			Convey("Then a decode error is returned", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, tokenstore.ErrNoToken), ShouldBeFalse)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := tokenstore.NewMemoryStore("")

		_, err := store.Load(ctx)
		So(errors.Is(err, tokenstore.ErrNoToken), ShouldBeTrue)

		So(store.Save(ctx, "t1"), ShouldBeNil)
		token, err := store.Load(ctx)
		So(err, ShouldBeNil)
		So(token, ShouldEqual, "t1")

		So(store.Clear(ctx), ShouldBeNil)
		_, err = store.Load(ctx)
		So(errors.Is(err, tokenstore.ErrNoToken), ShouldBeTrue)
	})
}
