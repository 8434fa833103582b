package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"audiogate-backend/lib/serviceutil"
)

var downloadOut *string

func init() {
	downloadOut = downloadCmd.Flags().String("out", "", "Copy the media file to this path.")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <key> <id> [--out <path/to/file.mp3>]",
	Short: "Downloads the media file for a track from a previous search.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		engine := createEngine(cmd.Context(), cfg)

		item, err := engine.Resolve(cmd.Context(), args[0], args[1])
		if err != nil {
			serviceutil.Fatal("failed to resolve track", err)
		}
		path, err := engine.FetchOrServe(cmd.Context(), item)
		if err != nil {
			serviceutil.Fatal("failed to fetch media", err)
		}

		if *downloadOut == "" {
			fmt.Println(path)
			return
		}

		src, err := os.Open(path)
		if err != nil {
			serviceutil.Fatal("failed to open media file", err)
		}
		defer src.Close()
		dst, err := os.Create(*downloadOut)
		if err != nil {
			serviceutil.Fatal("failed to create output file", err)
		}
		defer dst.Close()
		_, err = io.Copy(dst, src)
		if err != nil {
			serviceutil.Fatal("failed to copy media file", err)
		}
		fmt.Println(*downloadOut)
	},
}
