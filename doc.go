/*
Package rst renders reStructuredText into semantic HTML for static sites.

The module is split the way a docutils pipeline is:

  - [github.com/matthewdargan/semantic-rst/scan] classifies source lines.
  - [github.com/matthewdargan/semantic-rst/parse] builds a document tree from them.
  - [github.com/matthewdargan/semantic-rst/html] walks the tree and emits HTML.
  - [github.com/matthewdargan/semantic-rst/semantic] overrides the HTML hooks
    with HTML5 markup and registers the :kbd: role and the rst reader.
  - [github.com/matthewdargan/semantic-rst/reader] reads source files through
    a registry keyed by file extension.

Refer to the [reStructuredText Markup Specification] for the syntax.

[reStructuredText Markup Specification]: https://docutils.sourceforge.io/docs/ref/rst/restructuredtext.html
*/
package rst
