// pdftoppm - PDF to PPM/PGM/PBM/PNG raster converter
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/novvoo/go-pdfrender/pkg/render"
)

func main() {
	firstPage := flag.Int("f", 1, "first page to convert")
	lastPage := flag.Int("l", 0, "last page to convert (0 = last)")
	resolution := flag.Float64("r", 150, "resolution in DPI")
	scaleFlag := flag.Float64("scale", 0, "scale factor (overrides -r)")
	scaleTo := flag.Int("scale-to", 0, "scale the longest side to the given pixels")
	mono := flag.Bool("mono", false, "generate monochrome PBM output")
	gray := flag.Bool("gray", false, "generate grayscale PGM output")
	pngOut := flag.Bool("png", false, "generate PNG output")
	gpu := flag.Bool("gpu", false, "render on the GPU when available")
	workers := flag.Int("j", 1, "number of pages to render in parallel")
	ownerPwd := flag.String("opw", "", "owner password")
	userPwd := flag.String("upw", "", "user password")
	quiet := flag.Bool("q", false, "don't print any messages")
	version := flag.Bool("v", false, "print version info")
	help := flag.Bool("h", false, "print usage information")
	flag.BoolVar(help, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pdftoppm version 1.0.0\n")
		fmt.Fprintf(os.Stderr, "Copyright 2026 go-pdfrender authors\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pdftoppm [options] <PDF-file> [<output-root>]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Println("pdftoppm version 1.0.0")
		fmt.Println("Copyright 2026 go-pdfrender authors")
		return
	}

	if *help || flag.NArg() < 1 {
		flag.Usage()
		return
	}

	pdfFile := flag.Arg(0)
	outputRoot := flag.Arg(1)
	if outputRoot == "" {
		outputRoot = strings.TrimSuffix(filepath.Base(pdfFile), ".pdf")
	}

	password := *userPwd
	if password == "" {
		password = *ownerPwd
	}

	backend := render.BackendSoftware
	if *gpu {
		backend = render.BackendGPU
	}

	// Each page is rendered exactly once, so the page cache only wastes
	// memory here.
	svc := render.New(render.Options{
		Backend:   backend,
		CacheSize: -1,
		Password:  password,
	})
	defer svc.Close()

	if err := svc.Open(pdfFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PDF: %v\n", err)
		os.Exit(1)
	}

	ext := ".ppm"
	switch {
	case *pngOut:
		ext = ".png"
	case *mono:
		ext = ".pbm"
	case *gray:
		ext = ".pgm"
	}

	first := *firstPage
	last := *lastPage
	if first < 1 {
		first = 1
	}
	if last == 0 || last > svc.PageCount() {
		last = svc.PageCount()
	}
	if first > last {
		fmt.Fprintf(os.Stderr, "Error: no pages in range %d-%d\n", *firstPage, *lastPage)
		os.Exit(1)
	}

	nWorkers := *workers
	if nWorkers < 1 {
		nWorkers = 1
	}

	pages := make(chan int)
	var wg sync.WaitGroup
	var failedMu sync.Mutex
	failed := 0

	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pageNum := range pages {
				outputFile := outputRoot + ext
				if first != last {
					outputFile = fmt.Sprintf("%s-%d%s", outputRoot, pageNum, ext)
				}
				err := convertPage(svc, pageNum, pageScale(svc, pageNum, *scaleFlag, *scaleTo, *resolution), outputFile, ext)
				if err != nil {
					if !*quiet {
						fmt.Fprintf(os.Stderr, "Error rendering page %d: %v\n", pageNum, err)
					}
					failedMu.Lock()
					failed++
					failedMu.Unlock()
					continue
				}
				if !*quiet {
					fmt.Printf("Wrote %s\n", outputFile)
				}
			}
		}()
	}

	for pageNum := first; pageNum <= last; pageNum++ {
		pages <- pageNum
	}
	close(pages)
	wg.Wait()

	if failed > 0 {
		os.Exit(1)
	}
}

// pageScale resolves the flag precedence: an explicit scale wins, then
// scale-to on the longest page side, then DPI.
func pageScale(svc *render.Service, pageNum int, scale float64, scaleTo int, dpi float64) float64 {
	if scale > 0 {
		return scale
	}
	if scaleTo > 0 {
		if page, err := svc.Document().GetPage(pageNum - 1); err == nil {
			longest := page.Width()
			if page.Height() > longest {
				longest = page.Height()
			}
			if longest > 0 {
				return float64(scaleTo) / longest
			}
		}
	}
	return dpi / 72
}

func convertPage(svc *render.Service, pageNum int, scale float64, outputFile, ext string) error {
	pm, err := svc.RenderPage(context.Background(), pageNum-1, scale)
	if err != nil {
		return err
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	switch ext {
	case ".png":
		err = png.Encode(w, pm.Image())
	case ".pgm":
		err = writePGM(w, pm.Width, pm.Height, grayOverWhite(pm.Pix))
	case ".pbm":
		err = writePBM(w, pm.Width, pm.Height, grayOverWhite(pm.Pix))
	default:
		err = writePPM(w, pm.Width, pm.Height, rgbOverWhite(pm.Pix))
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// rgbOverWhite flattens premultiplied RGBA onto a white background.
func rgbOverWhite(pix []uint8) []uint8 {
	out := make([]uint8, 0, len(pix)/4*3)
	for i := 0; i < len(pix); i += 4 {
		bg := 255 - int(pix[i+3])
		out = append(out,
			clamp8(int(pix[i])+bg),
			clamp8(int(pix[i+1])+bg),
			clamp8(int(pix[i+2])+bg))
	}
	return out
}

// grayOverWhite flattens onto white and reduces to BT.601 luma.
func grayOverWhite(pix []uint8) []uint8 {
	out := make([]uint8, 0, len(pix)/4)
	for i := 0; i < len(pix); i += 4 {
		bg := 255 - int(pix[i+3])
		r := int(clamp8(int(pix[i]) + bg))
		g := int(clamp8(int(pix[i+1]) + bg))
		b := int(clamp8(int(pix[i+2]) + bg))
		out = append(out, uint8((r*299+g*587+b*114)/1000))
	}
	return out
}

func clamp8(v int) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func writePPM(w *bufio.Writer, width, height int, rgb []uint8) error {
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height); err != nil {
		return err
	}
	_, err := w.Write(rgb)
	return err
}

func writePGM(w *bufio.Writer, width, height int, gray []uint8) error {
	if _, err := fmt.Fprintf(w, "P5\n%d %d\n255\n", width, height); err != nil {
		return err
	}
	_, err := w.Write(gray)
	return err
}

// writePBM thresholds luma at 50% and packs 8 pixels per byte, most
// significant bit first, 1 meaning black.
func writePBM(w *bufio.Writer, width, height int, gray []uint8) error {
	if _, err := fmt.Fprintf(w, "P4\n%d %d\n", width, height); err != nil {
		return err
	}
	rowBytes := (width + 7) / 8
	row := make([]uint8, rowBytes)
	for y := 0; y < height; y++ {
		for i := range row {
			row[i] = 0
		}
		for x := 0; x < width; x++ {
			if gray[y*width+x] < 128 {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
