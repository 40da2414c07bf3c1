// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package config

import (
	"fmt"
	"net/url"
)

// validateHTTPURL validates an absolute http(s) URL. Paths are allowed so it
// can check callback endpoints such as the webhook subscription URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	return nil
}

// validateAPIBaseURL validates the Pipedrive API root. A version path such as
// /v1 is expected; query parameters are not, since the token is appended per call.
func validateAPIBaseURL(rawURL, fieldName string) error {
	if err := validateHTTPURL(rawURL, fieldName); err != nil {
		return err
	}

	parsedURL, _ := url.Parse(rawURL) //nolint:errcheck // parsed above
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	if parsedURL.Fragment != "" {
		return fmt.Errorf("%s should not contain a fragment", fieldName)
	}

	return nil
}
