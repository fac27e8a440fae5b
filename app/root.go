// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blog-api",
	Short: "blog-api is the REST backend of the blog content management system",
	Long: `blog-api serves the blog content management REST API for articles,
categories, roles, users and image assets. Write access is controlled by a
role/permission gate driven by signed bearer tokens.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
