package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/supabase-community/supabase-go"

	"github.com/mealsnap/mealsnap/backend"
	"github.com/mealsnap/mealsnap/thumbnail"
	"github.com/mealsnap/mealsnap/vision"
)

func main() {
	var (
		cfgPath  = flag.String("config", defaultConfigPath(), "path to config file")
		login    = flag.Bool("login", false, "sign in and store the session")
		email    = flag.String("email", "", "email for -login")
		password = flag.String("password", "", "password for -login")
		analyze  = flag.String("analyze", "", "photo to estimate without saving")
		save     = flag.String("save", "", "photo to analyze and save")
		history  = flag.Bool("history", false, "show recent meals")
	)
	flag.Parse()

	c, err := readConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	switch {
	case *login:
		if *email == "" || *password == "" {
			log.Fatal("-login needs -email and -password")
		}
		if err := doLogin(c, *cfgPath, *email, *password); err != nil {
			log.Fatal(err)
		}
	case *analyze != "":
		if err := doAnalyze(ctx, c, *analyze); err != nil {
			log.Fatal(err)
		}
	case *save != "":
		if err := doSave(ctx, c, *cfgPath, *save); err != nil {
			log.Fatal(err)
		}
	case *history:
		if err := doHistory(ctx, c, *cfgPath); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func doLogin(c *Config, cfgPath, email, password string) error {
	client, err := backend.New(c.Supabase.URL, c.Supabase.AnonKey)
	if err != nil {
		return err
	}

	session, err := backend.SignIn(client, email, password)
	if err != nil {
		return err
	}

	c.Session.UserID = session.User.ID.String()
	c.Session.Email = session.User.Email
	c.Session.AccessToken = session.AccessToken
	c.Session.RefreshToken = session.RefreshToken
	c.Session.ExpiresAt = time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	if err := writeConfig(cfgPath, c); err != nil {
		return err
	}

	fmt.Printf("logged in as %s\n", session.User.Email)
	return nil
}

// authedClient builds a data handle from the stored session, refreshing
// the token pair first when it is past its expiry.
func authedClient(c *Config, cfgPath string) (*supabase.Client, error) {
	if c.Session.AccessToken == "" {
		return nil, fmt.Errorf("not logged in, run -login first")
	}

	session := backend.SessionFromTokens(c.Session.AccessToken, c.Session.RefreshToken)

	if time.Now().After(c.Session.ExpiresAt) {
		authClient, err := backend.New(c.Supabase.URL, c.Supabase.AnonKey)
		if err != nil {
			return nil, err
		}
		fresh, err := backend.Refresh(authClient, c.Session.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("session expired, run -login again: %w", err)
		}

		c.Session.AccessToken = fresh.AccessToken
		c.Session.RefreshToken = fresh.RefreshToken
		c.Session.ExpiresAt = time.Now().Add(time.Duration(fresh.ExpiresIn) * time.Second)
		if err := writeConfig(cfgPath, c); err != nil {
			return nil, err
		}
		session = fresh
	}

	dataClient, err := backend.New(c.Supabase.URL, c.Supabase.AnonKey)
	if err != nil {
		return nil, err
	}
	backend.SyncSession(session, dataClient)
	return dataClient, nil
}

func loadThumb(path string) ([]byte, error) {
	photo, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	thumb, err := thumbnail.Make(photo)
	if err != nil {
		return nil, err
	}

	fmt.Printf("%s: %s, thumbnail %s\n", path, humanize.Bytes(uint64(len(photo))), humanize.Bytes(uint64(len(thumb))))
	return thumb, nil
}

func doAnalyze(ctx context.Context, c *Config, path string) error {
	thumb, err := loadThumb(path)
	if err != nil {
		return err
	}

	analyzer := vision.New(c.Vision.APIKey, c.Vision.Model, c.Vision.BaseURL)
	estimate, err := analyzer.Analyze(ctx, thumb)
	if err != nil {
		return err
	}

	fmt.Print(formatEstimate(estimate))
	return nil
}

func doSave(ctx context.Context, c *Config, cfgPath, path string) error {
	client, err := authedClient(c, cfgPath)
	if err != nil {
		return err
	}
	store := backend.NewStore(client)

	thumb, err := loadThumb(path)
	if err != nil {
		return err
	}

	analyzer := vision.New(c.Vision.APIKey, c.Vision.Model, c.Vision.BaseURL)
	estimate, err := analyzer.Analyze(ctx, thumb)
	if err != nil {
		return err
	}
	fmt.Print(formatEstimate(estimate))

	thumbURL, err := store.UploadThumbnail(ctx, c.Session.UserID, thumb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "thumbnail upload failed: %v\n", err)
	}

	meal := mealFromEstimate(c.Session.UserID, estimate, thumbURL)
	writePath, err := store.SaveMeal(ctx, meal)
	if err != nil {
		return err
	}

	fmt.Printf("saved via %s\n", writePath)
	return nil
}

func doHistory(ctx context.Context, c *Config, cfgPath string) error {
	client, err := authedClient(c, cfgPath)
	if err != nil {
		return err
	}

	meals, err := backend.NewStore(client).RecentMeals(ctx, c.Session.UserID, 20)
	if err != nil {
		return err
	}

	fmt.Print(formatMeals(meals))
	return nil
}
