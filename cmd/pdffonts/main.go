// pdffonts - PDF font analyzer
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/novvoo/go-pdfrender/pkg/font"
	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

var (
	userPw    = flag.String("upw", "", "user password")
	ownerPw   = flag.String("opw", "", "owner password")
	printHelp = flag.Bool("h", false, "print usage information")
	printVer  = flag.Bool("v", false, "print version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "pdffonts version 0.1.0\n")
	fmt.Fprintf(os.Stderr, "Copyright 2026 go-pdfrender authors\n")
	fmt.Fprintf(os.Stderr, "Usage: pdffonts [options] <PDF-file>\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *printHelp {
		usage()
		os.Exit(0)
	}

	if *printVer {
		fmt.Println("pdffonts version 0.1.0")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	password := *userPw
	if password == "" {
		password = *ownerPw
	}
	doc, err := pdf.OpenWithPassword(args[0], password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close()

	fmt.Printf("name                                 type              encoding         emb sub uni object ID\n")
	fmt.Printf("------------------------------------ ----------------- ---------------- --- --- --- ---------\n")

	for _, fi := range font.ListFonts(doc) {
		name := fi.Name
		if name == "" {
			name = "[none]"
		}
		if len(name) > 36 {
			name = name[:36]
		}

		fontType := fi.Subtype
		if len(fontType) > 17 {
			fontType = fontType[:17]
		}

		encoding := fi.Encoding
		if len(encoding) > 16 {
			encoding = encoding[:16]
		}

		fmt.Printf("%-36s %-17s %-16s %-3s %-3s %-3s %5d %d\n",
			name, fontType, encoding,
			yesNo(fi.Embedded), yesNo(fi.Subset), yesNo(fi.ToUnicode),
			fi.Ref.ObjectNumber, fi.Ref.GenerationNumber)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
