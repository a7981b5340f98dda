// Command seed fills the database with generated users, posts and follows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"blogsphere/internal/config"
	"blogsphere/internal/database"
	"blogsphere/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	presetName := flag.String("preset", "small", "Preset to apply")
	presetFile := flag.String("file", "", "YAML file with extra presets; overrides built-ins of the same name")
	users := flag.Int("users", -1, "Override the preset's user count")
	posts := flag.Int("posts", -1, "Override the preset's posts per user")
	follows := flag.Int("follows", -1, "Override the preset's follows per user")
	clean := flag.Bool("clean", false, "Remove existing users, posts and follows first")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	presets := seed.BuiltinPresets()
	if *presetFile != "" {
		extra, err := seed.LoadPresetFile(*presetFile)
		if err != nil {
			return fmt.Errorf("load presets: %w", err)
		}
		for name, p := range extra {
			presets[name] = p
		}
	}

	preset, err := seed.FindPreset(presets, *presetName)
	if err != nil {
		return err
	}
	if *users >= 0 {
		preset.Users = *users
	}
	if *posts >= 0 {
		preset.PostsPerUser = *posts
	}
	if *follows >= 0 {
		preset.FollowsPerUser = *follows
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{RandSeed: *randSeed})
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	res, err := s.Apply(ctx, preset)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Printf("seeded preset %q: %d users, %d posts, %d follows", preset.Name, res.Users, res.Posts, res.Follows)
	return nil
}
