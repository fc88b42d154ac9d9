package guide

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes the attraction the guide is scoped to.
type Profile struct {
	Title        string   `yaml:"title" json:"title"`
	Instructions []string `yaml:"instructions" json:"instructions"`
	About        string   `yaml:"about" json:"about"`
	Prompt       string   `yaml:"prompt" json:"-"`
}

func DefaultProfile() Profile {
	return Profile{
		Title: "Fort Siloso Voice Guide",
		Instructions: []string{
			"Press the microphone and ask a question out loud about Fort Siloso.",
			"Release to stop recording.",
			"The guide will speak back with an answer.",
		},
		About: "This demo uses OpenAI's speech-to-text and text-to-speech models. " +
			"Voices are AI-generated.",
		Prompt: `You are a knowledgeable, friendly voice guide for Fort Siloso on Sentosa Island, Singapore.

Guidelines:
- Answer only questions related to Fort Siloso, Sentosa history, WWII coastal defence, the tunnels, guns, exhibits and visitor experience.
- If the user asks about something unrelated, reply briefly that you only answer questions about Fort Siloso.
- Prefer short, spoken-style answers: 2–4 sentences, clear and conversational.
- If the user asks for highly time-sensitive info (ticket prices, exact opening hours, special events), give general guidance and ask them to check the official website or on-site signage for exact details.`,
	}
}

// LoadProfile reads a YAML profile. Title, instructions and about fall
// back to the default profile when missing; the prompt is required and is
// used exactly as written. GUIDE_* variables are expanded in the page text.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}

	p.Title = expandGuideEnv(p.Title)
	p.About = expandGuideEnv(p.About)
	for i, in := range p.Instructions {
		p.Instructions[i] = expandGuideEnv(in)
	}

	def := DefaultProfile()
	if p.Title == "" {
		p.Title = def.Title
	}
	if len(p.Instructions) == 0 {
		p.Instructions = def.Instructions
	}
	if p.About == "" {
		p.About = def.About
	}
	if p.Prompt == "" {
		return Profile{}, errors.New("profile has no prompt")
	}
	return p, nil
}

// expandGuideEnv replaces $GUIDE_* references and leaves any other $ text
// untouched.
func expandGuideEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if strings.HasPrefix(name, "GUIDE_") {
			return os.Getenv(name)
		}
		return "$" + name
	})
}
