package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

var (
	firstPage    int
	lastPage     int
	box          bool
	meta         bool
	rawDates     bool
	ownerPw      string
	userPw       string
	printVersion bool
	printHelp    bool
)

func init() {
	flag.IntVar(&firstPage, "f", 1, "first page to examine")
	flag.IntVar(&lastPage, "l", 0, "last page to examine (0 = last)")
	flag.BoolVar(&box, "box", false, "print the page bounding boxes")
	flag.BoolVar(&meta, "meta", false, "print the document metadata (XML)")
	flag.BoolVar(&rawDates, "rawdates", false, "print the raw (undecoded) date strings")
	flag.StringVar(&ownerPw, "opw", "", "owner password")
	flag.StringVar(&userPw, "upw", "", "user password")
	flag.BoolVar(&printVersion, "v", false, "print copyright and version info")
	flag.BoolVar(&printHelp, "h", false, "print usage information")
	flag.BoolVar(&printHelp, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pdfinfo version 1.0.0\n")
		fmt.Fprintf(os.Stderr, "Copyright 2026 go-pdfrender authors\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pdfinfo [options] <PDF-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if printVersion {
		fmt.Println("pdfinfo version 1.0.0")
		fmt.Println("Copyright 2026 go-pdfrender authors")
		os.Exit(0)
	}

	if printHelp {
		flag.Usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	inputFile := args[0]

	password := userPw
	if password == "" {
		password = ownerPw
	}
	doc, err := pdf.OpenWithPassword(inputFile, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Couldn't open file '%s': %v\n", inputFile, err)
		os.Exit(1)
	}
	defer doc.Close()

	info := doc.GetInfo()
	numPages := doc.NumPages()

	fmt.Printf("Title:          %s\n", info.Title)
	fmt.Printf("Subject:        %s\n", info.Subject)
	fmt.Printf("Keywords:       %s\n", info.Keywords)
	fmt.Printf("Author:         %s\n", info.Author)
	fmt.Printf("Creator:        %s\n", info.Creator)
	fmt.Printf("Producer:       %s\n", info.Producer)

	if rawDates {
		fmt.Printf("CreationDate:   %s\n", info.CreationDateRaw)
		fmt.Printf("ModDate:        %s\n", info.ModDateRaw)
	} else {
		if !info.CreationDate.IsZero() {
			fmt.Printf("CreationDate:   %s\n", formatDate(info.CreationDate))
		}
		if !info.ModDate.IsZero() {
			fmt.Printf("ModDate:        %s\n", formatDate(info.ModDate))
		}
	}

	if len(info.Custom) > 0 {
		fmt.Println("Custom Metadata:")
		for k, v := range info.Custom {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	fmt.Printf("Tagged:         %s\n", boolToYesNo(info.Tagged))
	fmt.Printf("Form:           %s\n", info.Form)
	fmt.Printf("JavaScript:     %s\n", boolToYesNo(info.JavaScript))
	fmt.Printf("Pages:          %d\n", numPages)
	fmt.Printf("Encrypted:      %s\n", boolToYesNo(info.Encrypted))

	if numPages > 0 {
		if page, err := doc.GetPage(0); err == nil {
			mediaBox := page.GetMediaBox()
			fmt.Printf("Page size:      %.2f x %.2f pts", mediaBox.Width(), mediaBox.Height())
			if paperSize := detectPaperSize(mediaBox.Width(), mediaBox.Height()); paperSize != "" {
				fmt.Printf(" (%s)", paperSize)
			}
			fmt.Println()
			fmt.Printf("Page rot:       %d\n", page.GetRotation())
		}
	}

	if fileInfo, err := os.Stat(inputFile); err == nil {
		fmt.Printf("File size:      %d bytes\n", fileInfo.Size())
	}

	fmt.Printf("Optimized:      %s\n", boolToYesNo(info.Optimized))
	fmt.Printf("PDF version:    %s\n", info.PDFVersion)

	if box {
		printPageBoxes(doc, numPages)
	}

	if meta {
		if metadata := doc.GetMetadata(); metadata != "" {
			fmt.Println("\nMetadata:")
			fmt.Println(metadata)
		}
	}
}

func formatDate(t time.Time) string {
	return t.Format("Mon Jan 2 15:04:05 2006 MST")
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func detectPaperSize(width, height float64) string {
	// Common paper sizes in points
	sizes := map[string][2]float64{
		"letter":    {612, 792},
		"legal":     {612, 1008},
		"A4":        {595.276, 841.89},
		"A3":        {841.89, 1190.55},
		"A5":        {419.528, 595.276},
		"B5":        {498.898, 708.661},
		"executive": {522, 756},
		"tabloid":   {792, 1224},
	}

	tolerance := 5.0

	for name, size := range sizes {
		// Check both orientations
		if (abs(width-size[0]) < tolerance && abs(height-size[1]) < tolerance) ||
			(abs(width-size[1]) < tolerance && abs(height-size[0]) < tolerance) {
			orientation := "portrait"
			if width > height {
				orientation = "landscape"
			}
			return fmt.Sprintf("%s, %s", name, orientation)
		}
	}

	return ""
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// printPageBoxes prints the media and crop boxes for the selected page
// range, one block per page.
func printPageBoxes(doc *pdf.Document, numPages int) {
	first := firstPage
	last := lastPage
	if first < 1 {
		first = 1
	}
	if last == 0 || last > numPages {
		last = numPages
	}
	for pageNum := first; pageNum <= last; pageNum++ {
		page, err := doc.GetPage(pageNum - 1)
		if err != nil {
			continue
		}
		mediaBox := page.GetMediaBox()
		cropBox := page.GetCropBox()
		fmt.Printf("Page %4d MediaBox: %8.2f %8.2f %8.2f %8.2f\n",
			pageNum, mediaBox.LLX, mediaBox.LLY, mediaBox.URX, mediaBox.URY)
		fmt.Printf("Page %4d CropBox:  %8.2f %8.2f %8.2f %8.2f\n",
			pageNum, cropBox.LLX, cropBox.LLY, cropBox.URX, cropBox.URY)
		fmt.Printf("Page %4d Rotate:   %d\n", pageNum, page.GetRotation())
	}
}
