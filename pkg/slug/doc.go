// Package slug derives tenant slugs from company names.
//
// Output is always a valid DNS label so the same value can serve as the tenant's
// subdomain. Diacritics are folded to ASCII; everything else that is not a letter or
// digit becomes a single hyphen.
//
//	slug.Make("Zürich Plumbing & Heating")   // "zurich-plumbing-and-heating"
//	slug.Make("Acme", slug.WithSuffix(4))    // "acme-x7k2"
package slug
