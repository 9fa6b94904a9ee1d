package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ryuu-x/File-Sharing-App/internal/client"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "base URL of the file-sharing server")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-server URL] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		fmt.Fprintln(os.Stderr, client.ErrFolderNotAllowed)
		os.Exit(1)
	}

	candidate := client.CandidateFile{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		SizeKnown: true,
	}
	if err := client.Validate(candidate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	uploader := client.Uploader{BaseURL: *server}
	url, err := uploader.Upload(context.Background(), candidate.Name, f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(url)
}
