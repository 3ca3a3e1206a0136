package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/AnshRaj112/reflections-backend/internal/display"
	"github.com/AnshRaj112/reflections-backend/internal/form"
	"github.com/AnshRaj112/reflections-backend/internal/models"
)

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Base URL of a running reflections API",
		Value:   "http://localhost:8080",
		Sources: cli.EnvVars("REFLECTIONS_SERVER"),
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Send a reflection through the client form checks",
		Flags: []cli.Flag{
			serverFlag(),
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Contact email"},
			&cli.StringFlag{Name: "neighborhood", Aliases: []string{"n"}, Usage: "Neighborhood, e.g. King West"},
			&cli.StringFlag{Name: "reflection", Aliases: []string{"r"}, Usage: "Reflection text (truncated to 1200 characters)"},
			&cli.StringFlag{Name: "title", Usage: "Optional title"},
			&cli.StringFlag{Name: "photo", Aliases: []string{"p"}, Usage: "Path to an image or video to attach"},
			&cli.StringFlag{Name: "website", Usage: "Decoy field; leave empty", Hidden: true},
		},
		Action: submit,
	}
}

func submit(ctx context.Context, cmd *cli.Command) error {
	f := form.New(form.NewHTTPSubmitter(cmd.String("server"), nil))
	f.SetEmail(cmd.String("email"))
	f.SetNeighborhood(cmd.String("neighborhood"))
	f.SetReflection(cmd.String("reflection"))
	f.SetTitle(cmd.String("title"))
	f.SetHoneypot(cmd.String("website"))

	if path := cmd.String("photo"); path != "" {
		file, err := readFile(path)
		if err != nil {
			return err
		}
		if err := f.AttachFile(file); err != nil {
			return err
		}
	}

	chars, words := f.Counts()
	rec, err := f.Submit(ctx)
	switch {
	case errors.Is(err, form.ErrSuppressed):
		return nil
	case err != nil:
		return fmt.Errorf("failed to save your reflection: %w", err)
	}

	fmt.Printf("Thank you! Your reflection was saved (%d words, %d/%d characters).\n", words, chars, form.MaxReflectionLength)
	fmt.Printf("id: %s\n", rec.ID)
	if rec.PhotoURL != nil {
		fmt.Printf("photo: %s\n", *rec.PhotoURL)
	}
	return nil
}

// readFile loads an attachment, taking its media type from the extension
// and falling back to content sniffing.
func readFile(path string) (*form.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &form.File{Name: filepath.Base(path), ContentType: contentType, Data: data}, nil
}

func browseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Show reflections as cards",
		Flags: []cli.Flag{
			serverFlag(),
			&cli.StringFlag{Name: "neighborhood", Aliases: []string{"n"}, Usage: "Only this neighborhood (exact match)"},
			&cli.BoolFlag{Name: "featured", Aliases: []string{"f"}, Usage: "Only featured reflections"},
			&cli.BoolFlag{Name: "shuffle", Usage: "Shuffle the list like the explore page"},
			&cli.BoolFlag{Name: "neighborhoods", Usage: "List neighborhoods instead of cards"},
			&cli.IntFlag{Name: "seed", Usage: "Shuffle seed (default: time based)"},
			&cli.IntFlag{Name: "width", Usage: "Card width", Value: 60},
		},
		Action: browse,
	}
}

func browse(ctx context.Context, cmd *cli.Command) error {
	client := display.NewClient(cmd.String("server"), nil)
	list, err := client.Fetch(ctx, models.ReflectionFilter{
		Neighborhood: cmd.String("neighborhood"),
		FeaturedOnly: cmd.Bool("featured"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("neighborhoods") {
		for _, n := range display.Neighborhoods(list) {
			fmt.Println(n)
		}
		return nil
	}

	if cmd.Bool("shuffle") {
		seed := uint64(cmd.Int("seed"))
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		list = display.Shuffle(list, rand.New(rand.NewPCG(seed, seed)))
	}

	fmt.Println(display.RenderCards(display.Entries(list, time.Local), int(cmd.Int("width"))))
	return nil
}
