// Package main provides the entry point for the blog content management API.
// It runs a Fiber based REST service for articles, categories, roles, users
// and image assets, backed by a relational store through gorm. Write access
// is guarded per request by a role/permission gate driven by signed bearer
// tokens.
package main
