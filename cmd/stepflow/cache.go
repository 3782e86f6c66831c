package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage stored checkpoints",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored checkpoints",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [name...]",
	Short: "Delete checkpoints by name, or all of them",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheList(_ *cobra.Command, _ []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	infos, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(os.Stdout, "%s\n", styleMuted.Render("no checkpoints"))
		return nil
	}

	for _, info := range infos {
		fmt.Fprintf(os.Stdout, "  %s  %s  %d bytes\n",
			styleStep.Render(info.Name),
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.Size)
	}
	return nil
}

func runCacheClear(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := newStore()
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		infos, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			names = append(names, info.Name)
		}
	}

	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "deleted %s\n", name)
	}
	return nil
}
