/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"time"

	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/spf13/cobra"
)

var (
	tempDuration time.Duration
	tempScopes   []string
	tempName     string
)

// tempCredsCmd issues temporary credentials from the configured permanent ones
var tempCredsCmd = &cobra.Command{
	Use:   "temp-creds",
	Short: "Create temporary credentials",
	Long: `Create temporary credentials from the configured permanent credentials,
limited to --scope and valid for --duration (at most 31 days). The credentials
are printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := newObject()
		if err != nil {
			return err
		}
		if obj.Credentials == nil {
			return errors.New("no credentials configured")
		}

		var temp *client.Credentials
		if tempName != "" {
			temp, err = obj.Credentials.CreateNamedTemporaryCredentials(tempName, tempDuration, tempScopes...)
		} else {
			temp, err = obj.Credentials.CreateTemporaryCredentials(tempDuration, tempScopes...)
		}
		if err != nil {
			return err
		}
		return printJSON(temp)
	},
}

func init() {
	rootCmd.AddCommand(tempCredsCmd)

	tempCredsCmd.Flags().DurationVarP(&tempDuration, "duration", "d", time.Hour, "Validity of the credentials")
	tempCredsCmd.Flags().StringSliceVarP(&tempScopes, "scope", "s", nil, "Scopes of the credentials (repeatable)")
	tempCredsCmd.Flags().StringVar(&tempName, "name", "", "Client id of named temporary credentials")
}
