// Package github is a small client for the parts of the GitHub REST API the
// template pipelines use: listing repository contents, creating repositories
// and streaming file downloads. It works against github.com and GitHub
// Enterprise installations alike; see APIURLFromWeb.
package github
