package storage_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/snapdeck/snapdeck/internal/storage"
	"github.com/snapdeck/snapdeck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestFileStoreWrite(t *testing.T) {
	Convey("Given a file store rooted in a fresh directory", t, func() {
		root := filepath.Join(t.TempDir(), "slides")
		fs, err := storage.NewFileStore(root)
		So(err, ShouldBeNil)
		So(fs.Root(), ShouldEqual, root)

		sessionID := uuid.New()

		Convey("When a slide is written", func() {
			path, err := fs.Write(sessionID, 1, testImage(color.RGBA{R: 200, A: 255}))

			Convey("Then the file lands under the session directory", func() {
				So(err, ShouldBeNil)
				So(path, ShouldEqual, filepath.Join(root, sessionID.String(), "slide-0001.png"))
			})

			Convey("And the file decodes back as a PNG", func() {
				f, err := os.Open(path)
				So(err, ShouldBeNil)
				defer f.Close()
				img, err := png.Decode(f)
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 32)
				So(img.Bounds().Dy(), ShouldEqual, 24)
			})

			Convey("And no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Join(root, sessionID.String()))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When slides for several sequences are written", func() {
			for seq := int64(1); seq <= 3; seq++ {
				_, err := fs.Write(sessionID, seq, testImage(color.RGBA{G: uint8(seq * 60), A: 255}))
				So(err, ShouldBeNil)
			}

			Convey("Then each sequence gets its own zero-padded file", func() {
				entries, err := os.ReadDir(filepath.Join(root, sessionID.String()))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Name(), ShouldEqual, "slide-0001.png")
				So(entries[2].Name(), ShouldEqual, "slide-0003.png")
			})
		})
	})
}
