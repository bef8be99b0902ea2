package supabase

import (
	"strings"

	"github.com/supabase-community/supabase-go"
)

type Client struct {
	Supabase *supabase.Client
	baseURL  string
}

func NewClient(supabaseURL, serviceKey string) (*Client, error) {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client, err := supabase.NewClient(baseURL, serviceKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		baseURL:  baseURL,
	}, nil
}
