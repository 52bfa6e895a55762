// Package main 提供 resumectl：在本地浏览模板目录、渲染与导出简历，不经过队列。
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "resumectl",
	Short:         "Resumify local toolkit",
	Long:          "resumectl lists the template catalog, renders a resume file (JSON or YAML) to HTML and exports it to PDF with a local headless browser.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
