package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IDX magic numbers.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// maxIDXBytes bounds the payload a header may announce.
const maxIDXBytes = 1 << 30

// ErrFormat reports a malformed IDX stream.
var ErrFormat = errors.New("invalid idx data")

// ReadIDXImages reads images in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
//
// Returns one row-major pixel slice per image and the image width and height.
func ReadIDXImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	if err := readIDXMagic(r, idxImagesMagic); err != nil {
		return nil, 0, 0, fmt.Errorf("read image header: %w", err)
	}
	var dims [3]uint32
	if err := binary.Read(r, binary.BigEndian, &dims); err != nil {
		return nil, 0, 0, fmt.Errorf("read image header: %w", err)
	}

	n, rows, cols := int(dims[0]), int(dims[1]), int(dims[2])
	if uint64(dims[0])*uint64(dims[1])*uint64(dims[2]) > maxIDXBytes {
		return nil, 0, 0, fmt.Errorf("%w: %d images of %dx%d exceed %d bytes", ErrFormat, n, rows, cols, maxIDXBytes)
	}
	images = make([][]byte, n)
	for i := range images {
		images[i] = make([]byte, rows*cols)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return images, rows, cols, nil
}

// ReadIDXLabels reads labels in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]byte, error) {
	if err := readIDXMagic(r, idxLabelsMagic); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	if uint64(n) > maxIDXBytes {
		return nil, fmt.Errorf("%w: %d labels exceed %d bytes", ErrFormat, n, maxIDXBytes)
	}

	labels := make([]byte, n)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

// readIDXMagic reads the leading magic number and checks it against want.
func readIDXMagic(r io.Reader, want uint32) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return err
	}
	if magic != want {
		return fmt.Errorf("%w: magic number: got %d, want %d", ErrFormat, magic, want)
	}
	return nil
}

// BinaryDigits keeps the images of two digits and labels them 0 (negative)
// and 1 (positive). Pixels are scaled to [0, 1]. maxSamples <= 0 keeps all.
func BinaryDigits(images [][]byte, labels []byte, negative, positive byte, maxSamples int) ([][]float64, []float64, error) {
	if len(images) != len(labels) {
		return nil, nil, fmt.Errorf("%w: image count (%d) != label count (%d)", ErrFormat, len(images), len(labels))
	}

	var x [][]float64
	var y []float64
	for i, label := range labels {
		if label != negative && label != positive {
			continue
		}
		if maxSamples > 0 && len(x) == maxSamples {
			break
		}
		row := make([]float64, len(images[i]))
		for j, px := range images[i] {
			row[j] = float64(px) / 255.0
		}
		x = append(x, row)
		if label == positive {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return x, y, nil
}

// LoadMNISTBinary loads a two-digit subset of MNIST from dataDir.
//
// Expected files in dataDir:
//   - train-images-idx3-ubyte (or t10k-images-idx3-ubyte for test)
//   - train-labels-idx1-ubyte (or t10k-labels-idx1-ubyte for test)
func LoadMNISTBinary(dataDir string, train bool, negative, positive byte, maxSamples int) ([][]float64, []float64, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}

	images, err := readIDXFile(filepath.Join(dataDir, prefix+"-images-idx3-ubyte"), func(f io.Reader) ([][]byte, error) {
		images, _, _, err := ReadIDXImages(f)
		return images, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load images: %w", err)
	}

	labels, err := readIDXFile(filepath.Join(dataDir, prefix+"-labels-idx1-ubyte"), ReadIDXLabels)
	if err != nil {
		return nil, nil, fmt.Errorf("load labels: %w", err)
	}

	return BinaryDigits(images, labels, negative, positive, maxSamples)
}

func readIDXFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	return read(f)
}
