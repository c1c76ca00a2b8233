package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

const pathPrompt = "/api/Prompt"

func (c *Client) CreatePrompt(ctx context.Context, in CreatePromptRequest) (*Prompt, error) {
	var out Prompt
	if err := c.Do(ctx, http.MethodPost, pathPrompt, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPrompt(ctx context.Context, id string) (*Prompt, error) {
	var out Prompt
	if err := c.Do(ctx, http.MethodGet, pathPrompt+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePrompt(ctx context.Context, id string, in UpdatePromptRequest) (*Prompt, error) {
	var out Prompt
	if err := c.Do(ctx, http.MethodPut, pathPrompt+"/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePrompt(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, pathPrompt+"/"+url.PathEscape(id), nil, nil)
}

// MyPrompts lists the signed-in user's prompts.
func (c *Client) MyPrompts(ctx context.Context) ([]Prompt, error) {
	out := []Prompt{}
	if err := c.Do(ctx, http.MethodGet, pathPrompt+"/me", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
