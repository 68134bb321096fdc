// Package resscan discovers resources across heterogeneous storage by
// logical namespace. Given a set of dot-delimited namespace names, it
// resolves every physical location that exposes each namespace (loose
// directories, zip/jar and tar archives, virtual filesystems, git trees,
// S3 prefixes, OCI image layouts, remote archive bundles) and flattens the
// resource names found there into one pull-based cursor.
//
// # Architecture
//
// Three small pieces cooperate:
//
//   - A location provider maps a namespace path to raw location strings.
//     The default consults an ordered search path of roots, classpath
//     style; hosts can install their own with SetProvider or per scanner
//     with WithProvider.
//   - Scheme finder factories turn one canonical location into a Finder, a
//     lazy cursor over the resource names rooted there. Factories register
//     by scheme token; directory, zip/jar, tar/tgz, and vfs factories are
//     built in, and the gitfind, s3find, ocifind, and httpfind subpackages
//     plug in through WithFactories.
//   - The Scanner orchestrates a pass: resolve, normalize, dispatch by
//     scheme, and stack the finders in resolution order. The resulting
//     cursor yields all resources of the first location before the second,
//     and so on.
//
// # Basic Usage
//
//	ctx := context.Background()
//	scanner, err := resscan.New(ctx, []string{"com.acme.plugins"},
//	    resscan.WithSearchPath("/srv/app/resources", "/srv/app/bundle.jar"),
//	)
//	if err != nil {
//	    return err
//	}
//	for scanner.HasNext() {
//	    name, err := scanner.Next()
//	    if err != nil {
//	        return err
//	    }
//	    rc, err := scanner.Open()
//	    if err != nil {
//	        return err
//	    }
//	    // read and close rc
//	}
//
// Discovery failures are fatal to the whole pass: a malformed location, an
// unregistered scheme, or a provider I/O error surfaces from New (or Reset)
// and no partial cursor is exposed. See the core package for the error
// taxonomy.
package resscan
