// Package exifedit edits the lens fields of the EXIF block in JPEG images.
//
// Four fields can be changed: LensMake, LensModel, FocalLength and FNumber.
// Everything else in the EXIF block is decoded, carried through unchanged
// and written back.
//
// # Quick Start
//
//	file, err := exifedit.Open("photo.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_ = file.Set(exifedit.Name("LensMake"), exifedit.Text("Asahi Optical"))
//	_ = file.Set(exifedit.Name("FocalLength"), exifedit.Number(55))
//	_ = file.Set(exifedit.Tag(exifedit.TagFNumber), exifedit.Number(1.8))
//
//	if err := file.Save(); err != nil {
//		log.Fatal(err)
//	}
//
// # Keys and values
//
// A field is addressed by its symbolic name (Name) or by its numeric tag id
// (Tag). Text and Bytes supply lens maker and model; Number supplies focal
// length and F-number, which are stored as rationals with a denominator of
// 10000. Values are validated when Set is called, so an invalid value
// never reaches the file.
//
// # Saving
//
// Save splices a new EXIF segment into the original file and leaves all
// other bytes alone. SaveAs re-encodes the image to a new path. Both write
// through a temporary file and a rename:
//
//	err := file.SaveAs("copy.jpg",
//	    exifedit.WithQuality(90),
//	    exifedit.WithValidation(),
//	)
//
// # Error Handling
//
// Errors are typed so callers can branch with errors.As:
//
//	var nf *exifedit.FileNotFoundError
//	if errors.As(err, &nf) {
//		fmt.Println("no such image:", nf.Path)
//	}
//
// Open returns FileNotFoundError, UnsupportedFormatError or DecodeError.
// Set returns UnknownFieldError or InvalidValueError. Save and SaveAs
// return WriteError.
package exifedit
