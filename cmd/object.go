/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/spf13/cobra"
)

var (
	uploadProject  string
	uploadID       string
	uploadFile     string
	uploadData     string
	uploadExpires  time.Duration
	metadataAccept []string
	signedURL      bool
	signedDuration time.Duration
)

// pingCmd checks that the service is up
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the object service is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := newObject()
		if err != nil {
			return err
		}

		start := time.Now()
		if err := obj.Ping(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%s %s is up (%v)\n", green("✓"), obj.RootURL, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// uploadCmd uploads data inline
var uploadCmd = &cobra.Command{
	Use:   "upload <name>",
	Short: "Upload an object's data",
	Long: `Upload data for the named object. The data is read from --file ("-" for
stdin) or taken from --data, and expires after --expires.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readUploadData()
		if err != nil {
			return err
		}

		obj, err := newObject()
		if err != nil {
			return err
		}

		err = obj.UploadObject(cmd.Context(), args[0], &models.UploadObjectRequest{
			ProjectID: uploadProject,
			UploadID:  uploadID,
			Data:      data,
			Expires:   time.Now().Add(uploadExpires).UTC().Truncate(time.Second),
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s uploaded %s (%d bytes)\n", green("✓"), args[0], len(data))
		return nil
	},
}

func readUploadData() ([]byte, error) {
	switch {
	case uploadFile != "" && uploadData != "":
		return nil, errors.New("--file and --data are mutually exclusive")
	case uploadFile == "-":
		return io.ReadAll(os.Stdin)
	case uploadFile != "":
		return os.ReadFile(uploadFile)
	default:
		return []byte(uploadData), nil
	}
}

// metadataCmd asks how to download an object
var metadataCmd = &cobra.Command{
	Use:   "metadata <name>",
	Short: "Ask how to download an object",
	Long: `Offer the given download methods for the named object and print the one
the service selected. Exits with an error when none of them is supported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := newObject()
		if err != nil {
			return err
		}

		resp, err := obj.FetchObjectMetadata(cmd.Context(), args[0], models.NewDownloadObjectRequest(metadataAccept...))
		if errors.Is(err, client.ErrNotAcceptable) {
			return fmt.Errorf("none of the download methods %v is available for %s", metadataAccept, args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// downloadCmd resolves the download redirect of an object
var downloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Print the location of an object's data",
	Long: `Print where the data of the named object can be fetched. The redirect
returned by the service is not followed. With --signed-url, print a URL for
the download endpoint that carries its own authorization instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := newObject()
		if err != nil {
			return err
		}

		if signedURL {
			u, err := obj.DownloadSignedURL(args[0], signedDuration)
			if err != nil {
				return err
			}
			fmt.Println(u.String())
			return nil
		}

		redirect, err := obj.Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		logger.WithField("status", redirect.StatusCode).Debug("redirect received")
		fmt.Println(redirect.Location)
		return nil
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(pingCmd, uploadCmd, metadataCmd, downloadCmd)

	uploadCmd.Flags().StringVarP(&uploadProject, "project", "p", "", "Project the object belongs to")
	uploadCmd.Flags().StringVar(&uploadID, "upload-id", "", "Upload id, if the upload was started elsewhere")
	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Read the data from this file (- for stdin)")
	uploadCmd.Flags().StringVar(&uploadData, "data", "", "Data to upload")
	uploadCmd.Flags().DurationVar(&uploadExpires, "expires", 24*time.Hour, "Lifetime of the object")
	uploadCmd.MarkFlagRequired("project")

	metadataCmd.Flags().StringSliceVarP(&metadataAccept, "method", "m",
		[]string{models.DownloadMethodSimple, models.DownloadMethodGetURL}, "Acceptable download methods")

	downloadCmd.Flags().BoolVar(&signedURL, "signed-url", false, "Print a signed URL instead of resolving the redirect")
	downloadCmd.Flags().DurationVar(&signedDuration, "duration", 15*time.Minute, "Validity of the signed URL")
}
